package intermediate

import (
	"fmt"
	"strings"
)

// Instruction operations produced by Flatten
const (
	OpEmitStatic   = "EMIT_STATIC"   // write Value
	OpEmitDynamic  = "EMIT_DYNAMIC"  // evaluate Value, write it (escaped when Escape)
	OpEmitPreserve = "EMIT_PRESERVE" // like EMIT_DYNAMIC, newlines become &#x000A;
	OpEmitAttrs    = "EMIT_ATTRS"    // evaluate the attribute literals in Value merged over Attrs
	OpCode         = "CODE"          // run Value as a statement
	OpNewline      = "NEWLINE"       // next generated line
)

// Instruction is one step of the flattened program. Line is the generated
// line the step sits on, which equals the source line it came from.
type Instruction struct {
	Op     string `json:"op"`
	Line   int    `json:"line"`
	Value  string `json:"value,omitempty"`
	Escape bool   `json:"escape,omitempty"`
	Attrs  string `json:"attrs,omitempty"` // static base attributes for EMIT_ATTRS
}

func (i Instruction) String() string {
	switch i.Op {
	case OpNewline:
		return fmt.Sprintf("%d: %s", i.Line, i.Op)
	case OpEmitDynamic, OpEmitPreserve:
		return fmt.Sprintf("%d: %s %q escape=%t", i.Line, i.Op, i.Value, i.Escape)
	case OpEmitAttrs:
		return fmt.Sprintf("%d: %s %q base=%q", i.Line, i.Op, i.Value, i.Attrs)
	default:
		return fmt.Sprintf("%d: %s %q", i.Line, i.Op, i.Value)
	}
}

// Dump renders instructions one per line
func Dump(instructions []Instruction) string {
	var b strings.Builder

	for _, inst := range instructions {
		b.WriteString(inst.String())
		b.WriteString("\n")
	}

	return b.String()
}

// Render concatenates the static output of instructions, writing dynamic
// steps as {{code}}. It is meant for tests and previews, nothing is evaluated.
func Render(instructions []Instruction) string {
	var b strings.Builder

	for _, inst := range instructions {
		switch inst.Op {
		case OpEmitStatic:
			b.WriteString(inst.Value)
		case OpEmitDynamic, OpEmitPreserve:
			b.WriteString("{{" + inst.Value + "}}")
		case OpEmitAttrs:
			b.WriteString(inst.Attrs + "{{attrs " + inst.Value + "}}")
		}
	}

	return b.String()
}

// CodeLines returns the statements and expressions of instructions grouped by generated line
func CodeLines(instructions []Instruction) map[int][]string {
	lines := map[int][]string{}

	for _, inst := range instructions {
		switch inst.Op {
		case OpCode, OpEmitDynamic, OpEmitPreserve, OpEmitAttrs:
			lines[inst.Line] = append(lines[inst.Line], inst.Value)
		}
	}

	return lines
}
