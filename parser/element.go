package parser

import (
	"strings"

	snaphaml "github.com/shibukawa/snaphaml"
)

func isTagChar(c byte) bool {
	return c == '-' || c == ':' || c == '_' || isAlnum(c)
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' || isAlnum(c)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

// parseElement parses "%tag.class#id{...}(...)<>/= value" headers
func (p *parser) parseElement(line int, text string) error {
	el := &Element{
		BaseNode: BaseNode{nodeType: ELEMENT, line: line},
		Oneline:  NoNode,
	}

	i := 1
	for i < len(text) && isTagChar(text[i]) {
		i++
	}

	el.Tag = text[1:i]
	if el.Tag == "" {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrMalformedElement, "invalid tag: %q", text)
	}

	for i < len(text) && (text[i] == '.' || text[i] == '#') {
		marker := text[i]

		i++
		start := i

		for i < len(text) && isNameChar(text[i]) {
			i++
		}

		name := text[start:i]
		if name == "" {
			return snaphaml.NewSyntaxError(line, snaphaml.ErrMalformedElement, "classes and ids must have values: %q", text)
		}

		if marker == '.' {
			el.Classes = append(el.Classes, name)
		} else {
			el.IDs = append(el.IDs, name)
		}
	}

	rest := text[i:]

	for len(rest) > 0 && (rest[0] == '{' || rest[0] == '(') {
		var (
			literal string
			err     error
		)

		literal, rest, err = p.scanAttributes(el, line, rest)
		if err != nil {
			return err
		}

		if literal[0] == '{' {
			if el.OldAttrs != "" {
				return snaphaml.NewSyntaxError(line, snaphaml.ErrDuplicateAttributes, "%%%s already has a {...} attribute literal", el.Tag)
			}

			el.OldAttrs = literal
		} else {
			if el.NewAttrs != "" {
				return snaphaml.NewSyntaxError(line, snaphaml.ErrDuplicateAttributes, "%%%s already has a (...) attribute literal", el.Tag)
			}

			el.NewAttrs = literal
		}
	}

	if strings.HasPrefix(rest, "[") {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrMalformedElement, "object references are not supported: %q", rest)
	}

	for n := 0; n < 2 && len(rest) > 0 && (rest[0] == '<' || rest[0] == '>'); n++ {
		if rest[0] == '<' {
			el.NukeInner = true
		} else {
			el.NukeOuter = true
		}

		rest = rest[1:]
	}

	if strings.HasPrefix(rest, "/") {
		el.SelfClosing = true

		if content := strings.TrimSpace(rest[1:]); content != "" {
			return snaphaml.NewSyntaxError(line, snaphaml.ErrSelfClosingContent, "%%%s/ is followed by %q", el.Tag, content)
		}

		p.push(el)

		return nil
	}

	oneline, err := p.parseInline(line, rest)
	if err != nil {
		return err
	}

	if oneline == NoNode && rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return snaphaml.NewSyntaxError(line, snaphaml.ErrMalformedElement, "unexpected %q after %%%s", rest, el.Tag)
	}

	el.Oneline = oneline
	p.push(el)

	return nil
}

// scanAttributes cuts one balanced attribute literal from the head of rest,
// pulling further physical lines from the reader while it stays open.
func (p *parser) scanAttributes(el *Element, line int, rest string) (literal, remain string, err error) {
	open := rest[0]

	closer := byte('}')
	if open == '(' {
		closer = ')'
	}

	for {
		if end := balancedEnd(rest, open, closer); end >= 0 {
			return rest[:end], rest[end:], nil
		}

		// old style literals continue only after a trailing comma
		if open == '{' && !strings.HasSuffix(strings.TrimRight(rest, " \t"), ",") {
			return "", "", snaphaml.NewSyntaxError(line, snaphaml.ErrUnbalancedBrackets, "unbalanced brackets in %q", rest)
		}

		next, ok := p.reader.Next()
		if !ok {
			return "", "", snaphaml.NewSyntaxError(line, snaphaml.ErrUnbalancedBrackets, "unbalanced brackets in %q", rest)
		}

		rest = rest + "\n" + next.Text
		el.ExtraLines++
	}
}

// balancedEnd returns the offset just past the bracket closing s[0], or -1.
// Quoted strings are skipped so their brackets do not count.
func balancedEnd(s string, open, closer byte) int {
	depth := 0

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '"':
			i = skipQuoted(s, i)
			if i < 0 {
				return -1
			}
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return -1
}

// skipQuoted returns the index of the quote closing the string starting at i, or -1
func skipQuoted(s string, i int) int {
	quote := s[i]

	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}

	return -1
}

// action prefixes shared by element headers and standalone lines
type inlineKind int

const (
	inlineNone inlineKind = iota
	inlineText
	inlineScript
)

type action struct {
	kind     inlineKind
	escape   bool
	preserve bool
	rest     string
}

func (p *parser) splitAction(s string) action {
	def := p.opts.EscapeHTML

	prefixes := []struct {
		prefix string
		act    action
	}{
		{"&==", action{kind: inlineText, escape: true}},
		{"!==", action{kind: inlineText, escape: false}},
		{"==", action{kind: inlineText, escape: def}},
		{"&=", action{kind: inlineScript, escape: true}},
		{"!=", action{kind: inlineScript, escape: false}},
		{"&~", action{kind: inlineScript, escape: true, preserve: true}},
		{"!~", action{kind: inlineScript, escape: false, preserve: true}},
		{"=", action{kind: inlineScript, escape: def}},
		{"~", action{kind: inlineScript, escape: def, preserve: true}},
	}

	for _, pr := range prefixes {
		if strings.HasPrefix(s, pr.prefix) {
			act := pr.act
			act.rest = s[len(pr.prefix):]

			return act
		}
	}

	if len(s) > 0 && (s[0] == '&' || s[0] == '!') && (len(s) == 1 || s[1] == ' ' || s[1] == '\t') {
		return action{kind: inlineText, escape: s[0] == '&', rest: s[1:]}
	}

	return action{kind: inlineNone, rest: s}
}

// parseInline creates the oneline child of an element, or returns NoNode
func (p *parser) parseInline(line int, rest string) (NodeID, error) {
	act := p.splitAction(rest)

	switch act.kind {
	case inlineScript:
		n, err := p.newScript(line, act)
		if err != nil {
			return NoNode, err
		}

		return p.doc.add(n), nil
	case inlineText:
		return p.doc.add(p.newText(line, act.rest, act.escape)), nil
	}

	if content := strings.TrimSpace(rest); content != "" && (rest[0] == ' ' || rest[0] == '\t') {
		return p.doc.add(p.newText(line, content, p.opts.EscapeHTML)), nil
	}

	return NoNode, nil
}

func (p *parser) newText(line int, content string, escape bool) *Text {
	return &Text{
		BaseNode: BaseNode{nodeType: TEXT, line: line},
		Content:  strings.TrimSpace(content),
		Escape:   escape,
	}
}

func (p *parser) newScript(line int, act action) (*Script, error) {
	code := strings.TrimSpace(p.reader.joinContinuation(act.rest))
	if code == "" {
		return nil, snaphaml.NewSyntaxError(line, snaphaml.ErrEmptyExpression, "there is no code after '='")
	}

	return &Script{
		BaseNode: BaseNode{nodeType: SCRIPT, line: line},
		Code:     code,
		Keyword:  blockKeyword(code),
		Escape:   act.escape,
		Preserve: act.preserve,
	}, nil
}
