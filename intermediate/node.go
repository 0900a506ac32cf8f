package intermediate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Node is a node of the intermediate code-generation tree. The set of
// implementations is closed; consumers switch over the concrete types.
type Node interface {
	Kind() string
	node()
}

// Multi is an ordered sequence
type Multi struct {
	Children []Node
}

// Static is literal output text
type Static struct {
	Text string
}

// Dynamic is an opaque expression whose value is stringified at run time
type Dynamic struct {
	Code string
	Line int // source line the expression came from
}

// Escape HTML-escapes the output of Child when Flag is set
type Escape struct {
	Flag  bool
	Child Node
}

// Code is an opaque statement emitted verbatim
type Code struct {
	Code string
	Line int
}

// Newline advances the generated code by one line
type Newline struct{}

// MarkNewline requests an output newline unless a later RemoveNewline cancels it
type MarkNewline struct{}

// RemoveNewline cancels the most recent pending MarkNewline
type RemoveNewline struct{}

// Tag is an element with its attributes and body. Attrs is *Attrs or *AttrsCode.
type Tag struct {
	Name        string
	SelfClosing bool
	Attrs       Node
	Body        Node
}

// Attrs is an ordered list of attributes
type Attrs struct {
	Items []*Attr
}

// Attr is one attribute. A nil Value renders the name alone.
type Attr struct {
	Name  string
	Value Node
}

// AttrsCode is an attribute collection evaluated at run time. Base holds the
// attributes known at compile time, Sources the raw attribute literals.
type AttrsCode struct {
	Base    []*Attr
	Sources []string
	Line    int
}

// Preserve marks newlines in the runtime value of Child for preservation
type Preserve struct {
	Child Node
}

func (*Multi) Kind() string         { return "multi" }
func (*Static) Kind() string        { return "static" }
func (*Dynamic) Kind() string       { return "dynamic" }
func (*Escape) Kind() string        { return "escape" }
func (*Code) Kind() string          { return "code" }
func (*Newline) Kind() string       { return "newline" }
func (*MarkNewline) Kind() string   { return "mknl" }
func (*RemoveNewline) Kind() string { return "rmnl" }
func (*Tag) Kind() string           { return "tag" }
func (*Attrs) Kind() string         { return "attrs" }
func (*Attr) Kind() string          { return "attr" }
func (*AttrsCode) Kind() string     { return "attrs_code" }
func (*Preserve) Kind() string      { return "preserve" }

func (*Multi) node()         {}
func (*Static) node()        {}
func (*Dynamic) node()       {}
func (*Escape) node()        {}
func (*Code) node()          {}
func (*Newline) node()       {}
func (*MarkNewline) node()   {}
func (*RemoveNewline) node() {}
func (*Tag) node()           {}
func (*Attrs) node()         {}
func (*Attr) node()          {}
func (*AttrsCode) node()     {}
func (*Preserve) node()      {}

// NewMulti creates a Multi node
func NewMulti(children ...Node) *Multi {
	return &Multi{Children: children}
}

// Append adds children to the sequence
func (m *Multi) Append(children ...Node) {
	m.Children = append(m.Children, children...)
}

// CountNewlines counts Newline nodes in the tree rooted at n
func CountNewlines(n Node) int {
	count := 0

	Walk(n, func(n Node) {
		if _, ok := n.(*Newline); ok {
			count++
		}
	})

	return count
}

// Walk visits n and every descendant in order
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}

	fn(n)

	switch n := n.(type) {
	case *Multi:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case *Escape:
		Walk(n.Child, fn)
	case *Preserve:
		Walk(n.Child, fn)
	case *Tag:
		Walk(n.Attrs, fn)
		Walk(n.Body, fn)
	case *Attrs:
		for _, a := range n.Items {
			Walk(a, fn)
		}
	case *Attr:
		Walk(n.Value, fn)
	case *AttrsCode:
		for _, a := range n.Base {
			Walk(a, fn)
		}
	}
}

// Sexp renders n as a compact s-expression, e.g. (tag p (attrs) (static "x"))
func Sexp(n Node) string {
	var b strings.Builder
	writeSexp(&b, n)

	return b.String()
}

func writeSexp(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		b.WriteString("nil")
	case *Multi:
		b.WriteString("(multi")

		for _, c := range n.Children {
			b.WriteString(" ")
			writeSexp(b, c)
		}

		b.WriteString(")")
	case *Static:
		fmt.Fprintf(b, "(static %s)", strconv.Quote(n.Text))
	case *Dynamic:
		fmt.Fprintf(b, "(dynamic %s)", strconv.Quote(n.Code))
	case *Escape:
		fmt.Fprintf(b, "(escape %t ", n.Flag)
		writeSexp(b, n.Child)
		b.WriteString(")")
	case *Code:
		fmt.Fprintf(b, "(code %s)", strconv.Quote(n.Code))
	case *Newline:
		b.WriteString("(newline)")
	case *MarkNewline:
		b.WriteString("(mknl)")
	case *RemoveNewline:
		b.WriteString("(rmnl)")
	case *Tag:
		fmt.Fprintf(b, "(tag %s", n.Name)

		if n.SelfClosing {
			b.WriteString(" /")
		}

		b.WriteString(" ")
		writeSexp(b, n.Attrs)

		if n.Body != nil {
			b.WriteString(" ")
			writeSexp(b, n.Body)
		}

		b.WriteString(")")
	case *Attrs:
		b.WriteString("(attrs")

		for _, a := range n.Items {
			b.WriteString(" ")
			writeSexp(b, a)
		}

		b.WriteString(")")
	case *Attr:
		fmt.Fprintf(b, "(attr %s", n.Name)

		if n.Value != nil {
			b.WriteString(" ")
			writeSexp(b, n.Value)
		}

		b.WriteString(")")
	case *AttrsCode:
		b.WriteString("(attrs_code")

		for _, a := range n.Base {
			b.WriteString(" ")
			writeSexp(b, a)
		}

		for _, s := range n.Sources {
			b.WriteString(" ")
			b.WriteString(strconv.Quote(s))
		}

		b.WriteString(")")
	case *Preserve:
		b.WriteString("(preserve ")
		writeSexp(b, n.Child)
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "(unknown %T)", n)
	}
}

// JSON form: every node is an object with a "type" key

func (n *Multi) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []Node{}
	}

	return json.Marshal(struct {
		Type     string `json:"type"`
		Children []Node `json:"children"`
	}{n.Kind(), children})
}

func (n *Static) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{n.Kind(), n.Text})
}

func (n *Dynamic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Code string `json:"code"`
		Line int    `json:"line,omitempty"`
	}{n.Kind(), n.Code, n.Line})
}

func (n *Escape) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Flag  bool   `json:"flag"`
		Child Node   `json:"child"`
	}{n.Kind(), n.Flag, n.Child})
}

func (n *Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Code string `json:"code"`
		Line int    `json:"line,omitempty"`
	}{n.Kind(), n.Code, n.Line})
}

func (n *Newline) MarshalJSON() ([]byte, error) {
	return marshalMarker(n)
}

func (n *MarkNewline) MarshalJSON() ([]byte, error) {
	return marshalMarker(n)
}

func (n *RemoveNewline) MarshalJSON() ([]byte, error) {
	return marshalMarker(n)
}

func marshalMarker(n Node) ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{n.Kind()})
}

func (n *Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string `json:"type"`
		Name        string `json:"name"`
		SelfClosing bool   `json:"self_closing,omitempty"`
		Attrs       Node   `json:"attrs"`
		Body        Node   `json:"body,omitempty"`
	}{n.Kind(), n.Name, n.SelfClosing, n.Attrs, n.Body})
}

func (n *Attrs) MarshalJSON() ([]byte, error) {
	items := n.Items
	if items == nil {
		items = []*Attr{}
	}

	return json.Marshal(struct {
		Type  string  `json:"type"`
		Items []*Attr `json:"items"`
	}{n.Kind(), items})
}

func (n *Attr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Value Node   `json:"value"`
	}{n.Kind(), n.Name, n.Value})
}

func (n *AttrsCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string   `json:"type"`
		Base    []*Attr  `json:"base,omitempty"`
		Sources []string `json:"sources"`
		Line    int      `json:"line,omitempty"`
	}{n.Kind(), n.Base, n.Sources, n.Line})
}

func (n *Preserve) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Child Node   `json:"child"`
	}{n.Kind(), n.Child})
}
