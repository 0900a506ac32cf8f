// Package compiler lowers a parsed document into the intermediate tree.
package compiler

import (
	"errors"
	"fmt"

	"github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/explang"
	"github.com/shibukawa/snaphaml/filter"
	"github.com/shibukawa/snaphaml/intermediate"
	"github.com/shibukawa/snaphaml/parser"
)

// TempPrefix prefixes the variables holding the value of block scripts
const TempPrefix = "_snaphaml_tmp"

// TreeCompiler lowers one Document at a time. The generated code keeps the
// line structure of the source: a fragment from line L is preceded by L-1
// Newline nodes.
type TreeCompiler struct {
	opts    snaphaml.Options
	filters *filter.Registry
	attrs   *AttributeAnalyzer

	doc   *parser.Document
	line  int // generated line
	temps int
}

// NewTreeCompiler creates a compiler. A nil registry means the built-in filters.
func NewTreeCompiler(opts snaphaml.Options, filters *filter.Registry, validator explang.Validator) *TreeCompiler {
	if filters == nil {
		filters = filter.DefaultRegistry()
	}

	return &TreeCompiler{
		opts:    opts,
		filters: filters,
		attrs:   NewAttributeAnalyzer(validator, opts),
	}
}

// Compile lowers doc. The result ends on the last consumed source line.
func (c *TreeCompiler) Compile(doc *parser.Document) (*intermediate.Multi, error) {
	c.doc = doc
	c.line = 1
	c.temps = 0

	defer func() { c.doc = nil }()

	root, err := c.children(doc.Root(), false, false)
	if err != nil {
		return nil, err
	}

	c.sync(root, doc.LastLine())

	return root, nil
}

// sync appends Newlines until the generated line reaches line
func (c *TreeCompiler) sync(m *intermediate.Multi, line int) {
	for ; c.line < line; c.line++ {
		m.Append(&intermediate.Newline{})
	}
}

// children compiles the block children of id. prepend opens the block with a
// pending newline, nukeInner cancels the one after the last child.
func (c *TreeCompiler) children(id parser.NodeID, prepend, nukeInner bool) (*intermediate.Multi, error) {
	m := intermediate.NewMulti()

	kids := c.doc.Children(id)
	if len(kids) == 0 {
		return m, nil
	}

	if prepend {
		m.Append(&intermediate.MarkNewline{})
	}

	for _, kid := range kids {
		n := c.doc.Node(kid)

		if el, ok := n.(*parser.Element); ok && el.NukeOuter {
			m.Append(&intermediate.RemoveNewline{})
		}

		c.sync(m, n.Line())

		node, whitespace, err := c.compile(kid, nukeInner)
		if err != nil {
			return nil, err
		}

		if node != nil {
			m.Append(node)
		}

		if whitespace {
			m.Append(&intermediate.MarkNewline{})
		}
	}

	if nukeInner {
		m.Append(&intermediate.RemoveNewline{})
	}

	return m, nil
}

// compile lowers one node; whitespace reports whether output whitespace follows it
func (c *TreeCompiler) compile(id parser.NodeID, nukeInner bool) (intermediate.Node, bool, error) {
	switch n := c.doc.Node(id).(type) {
	case *parser.Element:
		node, err := c.element(id, n)
		return node, !n.NukeOuter, err
	case *parser.Text:
		node, err := Interpolate(n.Content, n.Escape, n.Line())
		return node, true, err
	case *parser.Script:
		node, err := c.script(id, n, nukeInner)
		return node, !c.doc.HasChildren(id) && !nukeInner, err
	case *parser.SilentScript:
		node, err := c.silentScript(id, n, nukeInner)
		return node, false, err
	case *parser.Doctype:
		text, ok := Doctype(n.Text, c.opts.Format)
		if !ok {
			return nil, false, snaphaml.NewSyntaxError(n.Line(), snaphaml.ErrIllegalDoctype, "!!! %s", n.Text)
		}

		if text == "" {
			return nil, false, nil
		}

		return &intermediate.Static{Text: text}, true, nil
	case *parser.HtmlComment:
		node, err := c.comment(id, n)
		return node, true, err
	case *parser.Filter:
		return c.filter(n)
	case *parser.HamlComment, *parser.Empty:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: %T", snaphaml.ErrUnknownNode, n)
	}
}

func (c *TreeCompiler) element(id parser.NodeID, el *parser.Element) (intermediate.Node, error) {
	attrs, err := c.attrs.Analyze(el)
	if err != nil {
		return nil, err
	}

	tag := &intermediate.Tag{Name: el.Tag, Attrs: attrs}

	switch {
	case el.HasOneline():
		body, _, err := c.compile(el.Oneline, false)
		if err != nil {
			return nil, err
		}

		tag.Body = body
	case c.doc.HasChildren(id):
		nuke := el.NukeInner || c.opts.IsPreserve(el.Tag)

		body, err := c.children(id, !nuke, nuke)
		if err != nil {
			return nil, err
		}

		tag.Body = body
	case el.SelfClosing || c.opts.IsAutoClose(el.Tag):
		tag.SelfClosing = true
	}

	return tag, nil
}

func (c *TreeCompiler) script(id parser.NodeID, s *parser.Script, nukeInner bool) (intermediate.Node, error) {
	if !c.doc.HasChildren(id) {
		return c.value(s, &intermediate.Dynamic{Code: s.Code, Line: s.Line()}), nil
	}

	if s.MidBlock {
		return c.block(id, s.Code, s.Line(), true, nukeInner)
	}

	temp := fmt.Sprintf("%s%d", TempPrefix, c.temps)
	c.temps++

	m := intermediate.NewMulti(&intermediate.Code{Code: temp + " = " + s.Code, Line: s.Line()})

	body, err := c.children(id, false, nukeInner)
	if err != nil {
		return nil, err
	}

	m.Append(body, &intermediate.Code{Code: c.opts.BlockEnd, Line: c.line})
	m.Append(c.value(s, &intermediate.Dynamic{Code: temp, Line: c.line}))

	return m, nil
}

// value wraps the result of a script by its escape and preserve flags
func (c *TreeCompiler) value(s *parser.Script, dynamic *intermediate.Dynamic) intermediate.Node {
	switch {
	case s.Preserve && !s.Escape:
		return &intermediate.Preserve{Child: dynamic}
	case s.Preserve:
		return &intermediate.Escape{Flag: true, Child: &intermediate.Preserve{Child: dynamic}}
	default:
		return &intermediate.Escape{Flag: s.Escape, Child: dynamic}
	}
}

func (c *TreeCompiler) silentScript(id parser.NodeID, s *parser.SilentScript, nukeInner bool) (intermediate.Node, error) {
	return c.block(id, s.Code, s.Line(), s.MidBlock, nukeInner)
}

// block emits code, the children and the closing statement when the block
// has children and does not continue an outer one
func (c *TreeCompiler) block(id parser.NodeID, code string, line int, midBlock, nukeInner bool) (intermediate.Node, error) {
	m := intermediate.NewMulti(&intermediate.Code{Code: code, Line: line})

	if !c.doc.HasChildren(id) {
		return m, nil
	}

	body, err := c.children(id, false, nukeInner)
	if err != nil {
		return nil, err
	}

	m.Append(body)

	if !midBlock {
		m.Append(&intermediate.Code{Code: c.opts.BlockEnd, Line: c.line})
	}

	return m, nil
}

func (c *TreeCompiler) comment(id parser.NodeID, n *parser.HtmlComment) (intermediate.Node, error) {
	open, closing := "<!--", "-->"

	if n.Conditional != "" {
		open, closing = "<!--["+n.Conditional+"]>", "<![endif]-->"
		if n.Revealed {
			open, closing = "<!--["+n.Conditional+"]><!-->", "<!--<![endif]-->"
		}
	}

	if !c.doc.HasChildren(id) {
		return &intermediate.Static{Text: open + " " + n.Text + " " + closing}, nil
	}

	body, err := c.children(id, true, false)
	if err != nil {
		return nil, err
	}

	return intermediate.NewMulti(
		&intermediate.Static{Text: open},
		body,
		&intermediate.Static{Text: closing},
	), nil
}

func (c *TreeCompiler) filter(f *parser.Filter) (intermediate.Node, bool, error) {
	ctx := &filter.Context{
		EscapeHTML: c.opts.EscapeHTML,
		Format:     c.opts.Format,
		Line:       f.Line(),
		Interpolate: func(text string, line int, escape bool) (intermediate.Node, error) {
			return Interpolate(text, escape, line)
		},
	}

	node, trailing, err := c.filters.Compile(f.Name, ctx, f.Lines)
	if err != nil {
		var ie *snaphaml.InterpolationError
		if errors.As(err, &ie) {
			return nil, false, err
		}

		return nil, false, snaphaml.NewSyntaxError(f.Line(), err, ":%s", f.Name)
	}

	// the body carries a Newline per source line it spans
	c.line += intermediate.CountNewlines(node)

	return node, trailing, nil
}
