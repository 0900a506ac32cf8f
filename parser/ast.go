package parser

import (
	"fmt"
	"slices"
	"strings"
)

// Node represents a Document Tree node. The set of implementations is closed.
type Node interface {
	Type() NodeType
	Line() int
	String() string
	node()
}

// NodeType represents the type of document node
type NodeType int

const (
	ROOT NodeType = iota
	ELEMENT
	TEXT
	SCRIPT
	SILENT_SCRIPT
	DOCTYPE
	HTML_COMMENT
	HAML_COMMENT
	FILTER
	EMPTY
)

// String returns string representation of NodeType
func (n NodeType) String() string {
	switch n {
	case ROOT:
		return "ROOT"
	case ELEMENT:
		return "ELEMENT"
	case TEXT:
		return "TEXT"
	case SCRIPT:
		return "SCRIPT"
	case SILENT_SCRIPT:
		return "SILENT_SCRIPT"
	case DOCTYPE:
		return "DOCTYPE"
	case HTML_COMMENT:
		return "HTML_COMMENT"
	case HAML_COMMENT:
		return "HAML_COMMENT"
	case FILTER:
		return "FILTER"
	case EMPTY:
		return "EMPTY"
	default:
		return "UNKNOWN"
	}
}

// NodeID indexes a node inside its Document
type NodeID int

// NoNode marks an absent node reference
const NoNode NodeID = -1

// BaseNode is the base implementation of document nodes
type BaseNode struct {
	nodeType NodeType
	line     int
}

func (n *BaseNode) Type() NodeType {
	return n.nodeType
}

// Line returns the 1-based source line the node opens on
func (n *BaseNode) Line() int {
	return n.line
}

func (n *BaseNode) node() {}

// Root is the document node. It has no source line of its own.
type Root struct {
	BaseNode
}

func (n *Root) String() string {
	return "ROOT"
}

// Element represents a %tag line (or an implicit div from .class/#id shorthand)
type Element struct {
	BaseNode
	Tag         string
	Classes     []string // shorthand classes in source order
	IDs         []string // shorthand ids in source order
	OldAttrs    string   // raw {...} literal including braces
	NewAttrs    string   // raw (...) literal including parentheses
	SelfClosing bool
	NukeOuter   bool
	NukeInner   bool
	Oneline     NodeID // inlined Text or Script child, NoNode when absent
	ExtraLines  int    // physical lines joined into the header
}

func (n *Element) String() string {
	var b strings.Builder
	b.WriteString("%" + n.Tag)

	for _, c := range n.Classes {
		b.WriteString("." + c)
	}

	for _, id := range n.IDs {
		b.WriteString("#" + id)
	}

	b.WriteString(n.OldAttrs)
	b.WriteString(n.NewAttrs)

	if n.NukeOuter {
		b.WriteString(">")
	}

	if n.NukeInner {
		b.WriteString("<")
	}

	if n.SelfClosing {
		b.WriteString("/")
	}

	return b.String()
}

// HasOneline reports whether the element carries inline content
func (n *Element) HasOneline() bool {
	return n.Oneline != NoNode
}

// Text represents literal text; interpolation is resolved by the compiler
type Text struct {
	BaseNode
	Content string
	Escape  bool
}

func (n *Text) String() string {
	return fmt.Sprintf("TEXT(%q, escape=%t)", n.Content, n.Escape)
}

// Script represents a value-producing "=" line
type Script struct {
	BaseNode
	Code     string
	Keyword  string
	Escape   bool
	Preserve bool
	MidBlock bool
}

func (n *Script) String() string {
	return fmt.Sprintf("SCRIPT(%q, escape=%t, preserve=%t, midblock=%t)", n.Code, n.Escape, n.Preserve, n.MidBlock)
}

// SilentScript represents a "-" statement line
type SilentScript struct {
	BaseNode
	Code     string
	Keyword  string
	MidBlock bool
}

func (n *SilentScript) String() string {
	return fmt.Sprintf("SILENT_SCRIPT(%q, midblock=%t)", n.Code, n.MidBlock)
}

// Doctype represents a "!!!" line
type Doctype struct {
	BaseNode
	Text string
}

func (n *Doctype) String() string {
	return fmt.Sprintf("DOCTYPE(%q)", n.Text)
}

// HtmlComment represents a "/" line
type HtmlComment struct {
	BaseNode
	Text        string
	Conditional string // "if IE" for /[if IE]
	Revealed    bool   // /![...]
}

func (n *HtmlComment) String() string {
	if n.Conditional != "" {
		return fmt.Sprintf("HTML_COMMENT([%s], %q, revealed=%t)", n.Conditional, n.Text, n.Revealed)
	}

	return fmt.Sprintf("HTML_COMMENT(%q)", n.Text)
}

// HamlComment represents a "-#" line and the nested lines it swallowed
type HamlComment struct {
	BaseNode
	Text      string
	Swallowed int
}

func (n *HamlComment) String() string {
	return fmt.Sprintf("HAML_COMMENT(%q, swallowed=%d)", n.Text, n.Swallowed)
}

// Filter represents a ":name" block with its raw lines
type Filter struct {
	BaseNode
	Name  string
	Lines []string
}

func (n *Filter) String() string {
	return fmt.Sprintf("FILTER(%s, %d lines)", n.Name, len(n.Lines))
}

// Empty represents a blank line
type Empty struct {
	BaseNode
}

func (n *Empty) String() string {
	return "EMPTY"
}

// Document is the parsed tree of one template. Nodes live in an arena and
// refer to each other by NodeID. A Document is never modified after Parse returns.
type Document struct {
	nodes    []Node
	children [][]NodeID
	lastLine int
}

func newDocument() *Document {
	d := &Document{}
	d.add(&Root{BaseNode{nodeType: ROOT}})

	return d
}

func (d *Document) add(n Node) NodeID {
	d.nodes = append(d.nodes, n)
	d.children = append(d.children, nil)

	return NodeID(len(d.nodes) - 1)
}

func (d *Document) appendChild(parent, child NodeID) {
	d.children[parent] = append(d.children[parent], child)
}

// Root returns the id of the root node
func (d *Document) Root() NodeID {
	return 0
}

// Node returns the node stored under id
func (d *Document) Node(id NodeID) Node {
	return d.nodes[id]
}

// Children returns a copy of the ordered block children of id
func (d *Document) Children(id NodeID) []NodeID {
	return slices.Clone(d.children[id])
}

// HasChildren reports whether id has block children
func (d *Document) HasChildren(id NodeID) bool {
	return len(d.children[id]) > 0
}

// Len returns the number of nodes, oneline children included
func (d *Document) Len() int {
	return len(d.nodes)
}

// LastLine returns the number of the last source line consumed
func (d *Document) LastLine() int {
	return d.lastLine
}

// Walk visits block children depth first in source order. Oneline children are not visited.
func (d *Document) Walk(fn func(id NodeID, depth int)) {
	var walk func(id NodeID, depth int)

	walk = func(id NodeID, depth int) {
		for _, child := range d.children[id] {
			fn(child, depth)
			walk(child, depth+1)
		}
	}

	walk(d.Root(), 0)
}

// String renders the tree one node per line, indented by depth
func (d *Document) String() string {
	var b strings.Builder

	d.Walk(func(id NodeID, depth int) {
		n := d.nodes[id]
		fmt.Fprintf(&b, "%s%d: %s", strings.Repeat("  ", depth), n.Line(), n.String())

		if e, ok := n.(*Element); ok && e.HasOneline() {
			fmt.Fprintf(&b, " > %s", d.nodes[e.Oneline].String())
		}

		b.WriteString("\n")
	})

	return b.String()
}
