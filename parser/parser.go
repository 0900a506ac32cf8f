package parser

import (
	"slices"
	"strings"

	snaphaml "github.com/shibukawa/snaphaml"
)

// FilterSet tells the parser which filter names exist
type FilterSet interface {
	Has(name string) bool
}

// ParseOption customizes a Parse call
type ParseOption func(*parser)

// KeepEmptyLines records blank lines as Empty nodes
func KeepEmptyLines() ParseOption {
	return func(p *parser) {
		p.keepEmpty = true
	}
}

var (
	startBlockKeywords = []string{"if", "unless", "case", "begin", "while", "until", "for"}
	midBlockKeywords   = []string{"else", "elsif", "rescue", "ensure", "when", "end"}
)

type parser struct {
	opts      snaphaml.Options
	filters   FilterSet
	keepEmpty bool

	reader    *LineReader
	tracker   *IndentTracker
	collector *FilterBlockCollector

	doc    *Document
	cursor []NodeID // insertion points, root at the bottom
	last   NodeID   // node created by the previous line
}

// Parse builds the Document Tree of src. filters may be nil to accept any filter name.
func Parse(src string, opts snaphaml.Options, filters FilterSet, options ...ParseOption) (*Document, error) {
	p := &parser{
		opts:    opts,
		filters: filters,
		reader:  NewLineReader(src),
		doc:     newDocument(),
		last:    NoNode,
	}
	p.cursor = []NodeID{p.doc.Root()}
	p.tracker = NewIndentTracker(opts.TabWidth, p.enter, p.leave)
	p.collector = NewFilterBlockCollector(p.reader, p.tracker)

	for _, option := range options {
		option(p)
	}

	if err := p.parse(); err != nil {
		return nil, err
	}

	opts.Log().Debug("parsed document", "nodes", p.doc.Len(), "lines", p.doc.LastLine())

	return p.doc, nil
}

func (p *parser) parse() error {
	for {
		line, ok := p.reader.Next()
		if !ok {
			break
		}

		if line.IsBlank() {
			if p.keepEmpty {
				id := p.doc.add(&Empty{BaseNode{nodeType: EMPTY, line: line.Number}})
				p.doc.appendChild(p.top(), id)
			}

			continue
		}

		text, prefix, err := p.tracker.Process(line.Text, line.Number)
		if err != nil {
			return err
		}

		err = p.parseLine(line.Number, strings.TrimRight(text, " \t"), p.tracker.Width(prefix))
		if err != nil {
			return err
		}
	}

	if err := p.tracker.Finish(); err != nil {
		return err
	}

	p.doc.lastLine = p.reader.Consumed()

	return nil
}

func (p *parser) top() NodeID {
	return p.cursor[len(p.cursor)-1]
}

// push appends n to the current insertion point
func (p *parser) push(n Node) NodeID {
	id := p.doc.add(n)
	p.doc.appendChild(p.top(), id)
	p.last = id

	return id
}

// enter is called by the tracker when line is indented deeper than its predecessor
func (p *parser) enter(line int) error {
	if p.last == NoNode {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrIllegalNesting, "indenting at the beginning of the document is illegal")
	}

	switch n := p.doc.Node(p.last).(type) {
	case *Element:
		if n.SelfClosing {
			return snaphaml.NewSyntaxError(line, snaphaml.ErrSelfClosingContent, "%%%s is self-closing and can't have nested content", n.Tag)
		}

		if n.HasOneline() {
			return snaphaml.NewSyntaxError(line, snaphaml.ErrIllegalNesting, "content can't be both given on the same line as %%%s and nested within it", n.Tag)
		}
	case *Script, *SilentScript:
	case *HtmlComment:
		if n.Text != "" {
			return snaphaml.NewSyntaxError(line, snaphaml.ErrIllegalNesting, "nesting within a comment that already has content is illegal")
		}
	default:
		return snaphaml.NewSyntaxError(line, snaphaml.ErrIllegalNesting, "nesting within %s is illegal", strings.ToLower(n.Type().String()))
	}

	p.cursor = append(p.cursor, p.last)

	return nil
}

func (p *parser) leave() error {
	p.last = p.top()
	p.cursor = p.cursor[:len(p.cursor)-1]

	return nil
}

// parseLine dispatches one dedented logical line by its leading character
func (p *parser) parseLine(line int, text string, width int) error {
	switch {
	case text[0] == '%':
		return p.parseElement(line, text)
	case (text[0] == '.' || text[0] == '#') && len(text) > 1 && isNameChar(text[1]):
		return p.parseElement(line, "%div"+text)
	case strings.HasPrefix(text, "!!!"):
		p.push(&Doctype{
			BaseNode: BaseNode{nodeType: DOCTYPE, line: line},
			Text:     strings.TrimSpace(text[3:]),
		})

		return nil
	case text[0] == '/':
		return p.parseComment(line, text)
	case strings.HasPrefix(text, "-#"):
		swallowed := p.collector.Collect(width)
		p.push(&HamlComment{
			BaseNode:  BaseNode{nodeType: HAML_COMMENT, line: line},
			Text:      strings.TrimSpace(text[2:]),
			Swallowed: len(swallowed),
		})

		return nil
	case text[0] == '-':
		return p.parseSilentScript(line, text)
	case text[0] == ':':
		return p.parseFilter(line, text, width)
	case text[0] == '\\':
		p.push(p.newText(line, text[1:], p.opts.EscapeHTML))

		return nil
	}

	act := p.splitAction(text)

	switch act.kind {
	case inlineScript:
		n, err := p.newScript(line, act)
		if err != nil {
			return err
		}

		if isMidBlock(n.Keyword) {
			n.MidBlock = true
			return p.attachMidBlock(line, n)
		}

		p.push(n)
	case inlineText:
		p.push(p.newText(line, act.rest, act.escape))
	default:
		p.push(p.newText(line, text, p.opts.EscapeHTML))
	}

	return nil
}

func (p *parser) parseSilentScript(line int, text string) error {
	code := strings.TrimSpace(p.reader.joinContinuation(text[1:]))
	if code == "" {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrEmptyExpression, "there is no code after '-'")
	}

	if firstWord(code) == "end" {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrUnnecessaryEnd, "remove %q", code)
	}

	n := &SilentScript{
		BaseNode: BaseNode{nodeType: SILENT_SCRIPT, line: line},
		Code:     code,
		Keyword:  blockKeyword(code),
	}

	if isMidBlock(n.Keyword) {
		n.MidBlock = true
		return p.attachMidBlock(line, n)
	}

	p.push(n)

	return nil
}

// attachMidBlock makes n the last child of the block it continues: the nearest
// preceding script sibling, or the enclosing script when n is nested inside it.
func (p *parser) attachMidBlock(line int, n Node) error {
	parent := p.top()
	target := NoNode

	siblings := p.doc.children[parent]

search:
	for i := len(siblings) - 1; i >= 0; i-- {
		switch s := p.doc.Node(siblings[i]).(type) {
		case *HamlComment, *Empty:
			continue
		case *Script:
			if !s.MidBlock {
				target = siblings[i]
			}
		case *SilentScript:
			if !s.MidBlock {
				target = siblings[i]
			}
		}

		break search
	}

	if target == NoNode {
		switch p.doc.Node(parent).(type) {
		case *Script, *SilentScript:
			target = parent
		default:
			return snaphaml.NewSyntaxError(line, snaphaml.ErrMidBlockWithoutBlock, "%q does not follow a block", firstWord(codeOf(n)))
		}
	}

	id := p.doc.add(n)
	p.doc.appendChild(target, id)
	p.last = id

	return nil
}

func (p *parser) parseComment(line int, text string) error {
	rest := text[1:]
	n := &HtmlComment{BaseNode: BaseNode{nodeType: HTML_COMMENT, line: line}}

	if strings.HasPrefix(rest, "![") {
		n.Revealed = true
		rest = rest[1:]
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return snaphaml.NewSyntaxError(line, snaphaml.ErrUnbalancedBrackets, "conditional comment %q is not closed", text)
		}

		n.Conditional = strings.TrimSpace(rest[1:end])
		rest = rest[end+1:]
	}

	n.Text = strings.TrimSpace(rest)
	p.push(n)

	return nil
}

func (p *parser) parseFilter(line int, text string, width int) error {
	name := text[1:]
	if name == "" || strings.IndexFunc(name, func(r rune) bool { return r > 0x7f || !isNameChar(byte(r)) }) >= 0 {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrUnknownFilter, "invalid filter name %q", text)
	}

	if p.filters != nil && !p.filters.Has(name) {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrUnknownFilter, "%q", name)
	}

	lines := p.collector.Collect(width)
	p.push(&Filter{
		BaseNode: BaseNode{nodeType: FILTER, line: line},
		Name:     name,
		Lines:    p.collector.Strip(lines),
	})

	return nil
}

func codeOf(n Node) string {
	switch n := n.(type) {
	case *Script:
		return n.Code
	case *SilentScript:
		return n.Code
	}

	return ""
}

// firstWord returns the leading identifier of code
func firstWord(code string) string {
	i := 0
	for i < len(code) && (code[i] == '_' || (code[i] >= 'a' && code[i] <= 'z') || (code[i] >= 'A' && code[i] <= 'Z')) {
		i++
	}

	return code[:i]
}

func blockKeyword(code string) string {
	word := firstWord(code)
	if slices.Contains(startBlockKeywords, word) || slices.Contains(midBlockKeywords, word) {
		return word
	}

	return ""
}

func isMidBlock(keyword string) bool {
	return keyword != "" && slices.Contains(midBlockKeywords, keyword)
}
