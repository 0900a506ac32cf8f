package compiler

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	tok "github.com/shibukawa/snaphaml/tokenizer"
)

type literalKind int

const (
	stringLiteral literalKind = iota
	numberLiteral
	boolLiteral
	nilLiteral
	arrayLiteral
	hashLiteral
)

// literal is a compile time attribute value
type literal struct {
	kind   literalKind
	text   string
	number decimal.Decimal
	flag   bool
	items  []*literal
	keys   []string
	values []*literal
}

func (l *literal) native() any {
	switch l.kind {
	case stringLiteral:
		return l.text
	case numberLiteral:
		return l.number
	case boolLiteral:
		return l.flag
	default:
		return nil
	}
}

// String returns the attribute text of the value
func (l *literal) String() string {
	switch l.kind {
	case arrayLiteral:
		return strings.Join(l.words(), " ")
	case hashLiteral:
		pairs := make([]string, 0, len(l.keys))
		for i, key := range l.keys {
			pairs = append(pairs, key+"="+l.values[i].String())
		}

		return strings.Join(pairs, " ")
	default:
		return cast.ToString(l.native())
	}
}

// words returns the class names the value contributes
func (l *literal) words() []string {
	switch l.kind {
	case nilLiteral:
		return nil
	case boolLiteral:
		if !l.flag {
			return nil
		}
	case stringLiteral:
		return strings.Fields(l.text)
	case arrayLiteral:
		var words []string
		for _, item := range l.items {
			words = append(words, item.words()...)
		}

		return words
	}

	return []string{l.String()}
}

// parts returns the id fragments the value contributes
func (l *literal) parts() []string {
	switch l.kind {
	case nilLiteral:
		return nil
	case boolLiteral:
		if !l.flag {
			return nil
		}
	case arrayLiteral:
		var parts []string
		for _, item := range l.items {
			parts = append(parts, item.parts()...)
		}

		return parts
	}

	if s := l.String(); s != "" {
		return []string{s}
	}

	return nil
}

// decodeLiteral builds the value of tokens already accepted by the literal grammar
func decodeLiteral(tokens []tok.Token) (*literal, error) {
	d := &decoder{tokens: tokens}

	value, err := d.value()
	if err != nil {
		return nil, err
	}

	if d.pos != len(tokens) {
		return nil, fmt.Errorf("%w: trailing %q", errNotStatic, tokens[d.pos].Value)
	}

	return value, nil
}

type decoder struct {
	tokens []tok.Token
	pos    int
}

func (d *decoder) next() (tok.Token, error) {
	if d.pos >= len(d.tokens) {
		return tok.Token{}, fmt.Errorf("%w: unexpected end of literal", errNotStatic)
	}

	t := d.tokens[d.pos]
	d.pos++

	return t, nil
}

func (d *decoder) peek() tok.TokenType {
	if d.pos >= len(d.tokens) {
		return tok.EOF
	}

	return d.tokens[d.pos].Type
}

func (d *decoder) value() (*literal, error) {
	t, err := d.next()
	if err != nil {
		return nil, err
	}

	switch t.Type {
	case tok.STRING:
		return &literal{kind: stringLiteral, text: unquote(t.Value)}, nil
	case tok.SYMBOL:
		return &literal{kind: stringLiteral, text: symbolName(t.Value)}, nil
	case tok.NUMBER:
		number, err := decimal.NewFromString(strings.ReplaceAll(t.Value, "_", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errNotStatic, err)
		}

		return &literal{kind: numberLiteral, number: number}, nil
	case tok.IDENTIFIER:
		switch t.Value {
		case "true", "false":
			return &literal{kind: boolLiteral, flag: t.Value == "true"}, nil
		case "nil":
			return &literal{kind: nilLiteral}, nil
		}
	case tok.OPENED_BRACKET:
		return d.array()
	case tok.OPENED_BRACE:
		return d.hash()
	}

	return nil, fmt.Errorf("%w: unexpected %q", errNotStatic, t.Value)
}

func (d *decoder) array() (*literal, error) {
	result := &literal{kind: arrayLiteral}

	for d.peek() != tok.CLOSED_BRACKET {
		item, err := d.value()
		if err != nil {
			return nil, err
		}

		result.items = append(result.items, item)

		if d.peek() == tok.COMMA {
			d.pos++
		}
	}

	d.pos++

	return result, nil
}

func (d *decoder) hash() (*literal, error) {
	result := &literal{kind: hashLiteral}

	for d.peek() != tok.CLOSED_BRACE {
		key, err := d.next()
		if err != nil {
			return nil, err
		}

		if key.Type != tok.LABEL {
			// "key": / "key" => / :key =>
			if _, err := d.next(); err != nil {
				return nil, err
			}
		}

		value, err := d.value()
		if err != nil {
			return nil, err
		}

		var name string

		switch key.Type {
		case tok.LABEL:
			name = key.Value
		case tok.SYMBOL:
			name = symbolName(key.Value)
		default:
			name = unquote(key.Value)
		}

		result.keys = append(result.keys, name)
		result.values = append(result.values, value)

		if d.peek() == tok.COMMA {
			d.pos++
		}
	}

	d.pos++

	return result, nil
}

func symbolName(symbol string) string {
	name := strings.TrimPrefix(symbol, ":")
	if strings.HasPrefix(name, `"`) || strings.HasPrefix(name, "'") {
		return unquote(name)
	}

	return name
}

// unquote decodes a quoted string literal
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}

	quote := s[0]
	body := s[1 : len(s)-1]

	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}

		i++
		next := body[i]

		if quote == '\'' {
			if next != '\'' && next != '\\' {
				b.WriteByte('\\')
			}

			b.WriteByte(next)

			continue
		}

		switch next {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 's':
			b.WriteByte(' ')
		case '0':
			b.WriteByte(0)
		case 'e':
			b.WriteByte(0x1b)
		default:
			b.WriteByte(next)
		}
	}

	return b.String()
}
