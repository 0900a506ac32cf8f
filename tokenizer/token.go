package tokenizer

import "errors"

// Sentinel errors
var (
	ErrUnterminatedString = errors.New("unterminated string literal")
)

// TokenType represents the type of an attribute-literal token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	WHITESPACE
	IDENTIFIER // foo, foo?, foo!
	LABEL      // foo: (Value holds "foo")
	SYMBOL     // :foo or :"foo" (Value holds the raw text)
	STRING     // 'text', "text"
	NUMBER     // 1, -1.5, 1e3

	// Punctuation
	ARROW             // =>
	COLON             // :
	EQUAL             // =
	COMMA             // ,
	OPENED_BRACE      // {
	CLOSED_BRACE      // }
	OPENED_BRACKET    // [
	CLOSED_BRACKET    // ]
	OPENED_PARENS     // (
	CLOSED_PARENS     // )
	DOUBLE_SPLAT      // **
	INSTANCE_VARIABLE // @foo, @@foo, $foo

	// Others
	OTHER // operators and anything the attribute grammar has no name for
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case IDENTIFIER:
		return "IDENTIFIER"
	case LABEL:
		return "LABEL"
	case SYMBOL:
		return "SYMBOL"
	case STRING:
		return "STRING"
	case NUMBER:
		return "NUMBER"
	case ARROW:
		return "ARROW"
	case COLON:
		return "COLON"
	case EQUAL:
		return "EQUAL"
	case COMMA:
		return "COMMA"
	case OPENED_BRACE:
		return "OPENED_BRACE"
	case CLOSED_BRACE:
		return "CLOSED_BRACE"
	case OPENED_BRACKET:
		return "OPENED_BRACKET"
	case CLOSED_BRACKET:
		return "CLOSED_BRACKET"
	case OPENED_PARENS:
		return "OPENED_PARENS"
	case CLOSED_PARENS:
		return "CLOSED_PARENS"
	case DOUBLE_SPLAT:
		return "DOUBLE_SPLAT"
	case INSTANCE_VARIABLE:
		return "INSTANCE_VARIABLE"
	case OTHER:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position

	// Interpolated is set on double-quoted strings containing an unescaped #{...}
	Interpolated bool
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// IsOpening reports whether the token opens a nested group
func (t Token) IsOpening() bool {
	return t.Type == OPENED_BRACE || t.Type == OPENED_BRACKET || t.Type == OPENED_PARENS
}

// IsClosing reports whether the token closes a nested group
func (t Token) IsClosing() bool {
	return t.Type == CLOSED_BRACE || t.Type == CLOSED_BRACKET || t.Type == CLOSED_PARENS
}
