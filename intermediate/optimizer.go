package intermediate

import (
	"html"
	"strings"
)

// FlattenOptions controls how tags are written
type FlattenOptions struct {
	// XHTML writes self-closing tags as <br />
	XHTML bool
}

type flattener struct {
	opts    FlattenOptions
	out     []Instruction
	line    int
	pending int // MarkNewlines not yet written
}

// Flatten turns the tree into a linear instruction list. Multi nodes are
// collapsed, newline markers resolved and adjacent static text merged.
func Flatten(n Node, opts FlattenOptions) []Instruction {
	f := &flattener{opts: opts, line: 1}
	f.walk(n, false)
	f.flushPending()

	return MergeAdjacentStatic(f.out)
}

func (f *flattener) emit(inst Instruction) {
	if writesOutput(inst.Op) {
		f.flushPending()
	}

	inst.Line = f.line
	f.out = append(f.out, inst)
}

// writesOutput reports whether op produces output. Pending newlines stay
// pending across the others so a later RemoveNewline can still cancel them.
func writesOutput(op string) bool {
	switch op {
	case OpEmitStatic, OpEmitDynamic, OpEmitPreserve, OpEmitAttrs:
		return true
	default:
		return false
	}
}

func (f *flattener) static(text string) {
	if text != "" {
		f.emit(Instruction{Op: OpEmitStatic, Value: text})
	}
}

func (f *flattener) flushPending() {
	for ; f.pending > 0; f.pending-- {
		f.out = append(f.out, Instruction{Op: OpEmitStatic, Line: f.line, Value: "\n"})
	}
}

func (f *flattener) walk(n Node, escape bool) {
	switch n := n.(type) {
	case nil:
	case *Multi:
		for _, c := range n.Children {
			f.walk(c, escape)
		}
	case *Static:
		if escape {
			f.static(html.EscapeString(n.Text))
		} else {
			f.static(n.Text)
		}
	case *Dynamic:
		f.emit(Instruction{Op: OpEmitDynamic, Value: n.Code, Escape: escape})
	case *Escape:
		f.walk(n.Child, n.Flag)
	case *Preserve:
		if d, ok := n.Child.(*Dynamic); ok {
			f.emit(Instruction{Op: OpEmitPreserve, Value: d.Code, Escape: escape})
		} else {
			f.walk(n.Child, escape)
		}
	case *Code:
		f.emit(Instruction{Op: OpCode, Value: n.Code})
	case *Newline:
		f.emit(Instruction{Op: OpNewline})
		f.line++
	case *MarkNewline:
		f.pending++
	case *RemoveNewline:
		if f.pending > 0 {
			f.pending--
		}
	case *Tag:
		f.static("<" + n.Name)
		f.walk(n.Attrs, false)

		if n.SelfClosing {
			if f.opts.XHTML {
				f.static(" />")
			} else {
				f.static(">")
			}

			return
		}

		f.static(">")
		f.walk(n.Body, false)
		f.static("</" + n.Name + ">")
	case *Attrs:
		for _, a := range n.Items {
			f.walk(a, false)
		}
	case *Attr:
		if n.Value == nil {
			f.static(" " + n.Name)
			return
		}

		f.static(" " + n.Name + "='")
		f.walk(n.Value, false)
		f.static("'")
	case *AttrsCode:
		f.emit(Instruction{
			Op:    OpEmitAttrs,
			Value: strings.Join(n.Sources, ", "),
			Attrs: staticAttrs(n.Base),
		})
	}
}

// staticAttrs renders compile time attributes; only static values are expected here
func staticAttrs(attrs []*Attr) string {
	var b strings.Builder

	for _, a := range attrs {
		b.WriteString(" " + a.Name)

		if s, ok := a.Value.(*Static); ok {
			b.WriteString("='" + s.Text + "'")
		}
	}

	return b.String()
}

// MergeAdjacentStatic merges adjacent EMIT_STATIC instructions
func MergeAdjacentStatic(instructions []Instruction) []Instruction {
	if len(instructions) == 0 {
		return instructions
	}

	var result []Instruction

	for _, inst := range instructions {
		if n := len(result); n > 0 && inst.Op == OpEmitStatic && result[n-1].Op == OpEmitStatic {
			result[n-1].Value += inst.Value
			continue
		}

		result = append(result, inst)
	}

	return result
}
