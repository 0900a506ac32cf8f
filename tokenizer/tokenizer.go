package tokenizer

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// AttributeTokenizer splits an attribute literal such as
// `{class: "a", :href => url}` or `(type="text" value=v)` into tokens.
type AttributeTokenizer struct {
	input   string
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	// StartLine is the 1-based line of the first rune, used for positions
	StartLine int
}

// NewAttributeTokenizer creates a new AttributeTokenizer
func NewAttributeTokenizer(input string, options ...TokenizerOptions) *AttributeTokenizer {
	opts := TokenizerOptions{
		SkipWhitespace: false,
		StartLine:      1,
	}
	if len(options) > 0 {
		opts = options[0]
		if opts.StartLine < 1 {
			opts.StartLine = 1
		}
	}

	return &AttributeTokenizer{
		input:   input,
		options: opts,
	}
}

// Tokens returns an iterator of tokens
func (t *AttributeTokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input:  t.input,
			line:   t.options.StartLine,
			column: 0,
		}

		tokenizer.readChar()

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				yield(Token{}, err)
				return
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice, EOF included
func (t *AttributeTokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 32)

	for token, err := range t.Tokens() {
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

// Internal tokenizer implementation
type tokenizer struct {
	input    string
	position int // byte offset of the rune after current
	offset   int // byte offset of current
	line     int
	column   int
	current  rune
}

func (t *tokenizer) nextToken() (Token, error) {
	start := t.mark()

	switch r := t.current; {
	case r == 0:
		return t.token(EOF, start), nil
	case unicode.IsSpace(r):
		for unicode.IsSpace(t.current) {
			t.readChar()
		}

		return t.token(WHITESPACE, start), nil
	case r == '\'' || r == '"':
		return t.readString(start)
	case r == '=' && t.peekChar() == '>':
		t.readChar()
		t.readChar()

		return t.token(ARROW, start), nil
	case r == '*' && t.peekChar() == '*':
		t.readChar()
		t.readChar()

		return t.token(DOUBLE_SPLAT, start), nil
	case r == ':':
		return t.readColon(start)
	case r == '@' || r == '$':
		return t.readVariable(start), nil
	case unicode.IsDigit(r) || (r == '-' && unicode.IsDigit(t.peekChar())):
		return t.readNumber(start), nil
	case isIdentStart(r):
		return t.readWord(start), nil
	}

	tokenType := OTHER

	switch t.current {
	case '=':
		tokenType = EQUAL
	case ',':
		tokenType = COMMA
	case '{':
		tokenType = OPENED_BRACE
	case '}':
		tokenType = CLOSED_BRACE
	case '[':
		tokenType = OPENED_BRACKET
	case ']':
		tokenType = CLOSED_BRACKET
	case '(':
		tokenType = OPENED_PARENS
	case ')':
		tokenType = CLOSED_PARENS
	}

	t.readChar()

	return t.token(tokenType, start), nil
}

// readChar advances to the next rune
func (t *tokenizer) readChar() {
	if t.current == '\n' {
		t.line++
		t.column = 0
	}

	t.offset = t.position

	if t.position >= len(t.input) {
		t.current = 0
		return
	}

	r, size := utf8.DecodeRuneInString(t.input[t.position:])
	t.current = r
	t.position += size
	t.column++
}

// peekChar looks ahead at the next rune
func (t *tokenizer) peekChar() rune {
	if t.position >= len(t.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(t.input[t.position:])

	return r
}

func (t *tokenizer) mark() Position {
	return Position{Line: t.line, Column: t.column, Offset: t.offset}
}

func (t *tokenizer) token(tokenType TokenType, start Position) Token {
	return Token{
		Type:     tokenType,
		Value:    t.input[start.Offset:t.offset],
		Position: start,
	}
}

// readString reads a quoted literal, keeping the quotes in Value
func (t *tokenizer) readString(start Position) (Token, error) {
	delimiter := t.current
	interpolated := false

	t.readChar()

	for t.current != 0 && t.current != delimiter {
		switch {
		case t.current == '\\':
			t.readChar()
		case delimiter == '"' && t.current == '#' && t.peekChar() == '{':
			interpolated = true
		}

		if t.current != 0 {
			t.readChar()
		}
	}

	if t.current == 0 {
		return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedString, delimiter, start.Line, start.Column)
	}

	t.readChar()

	token := t.token(STRING, start)
	token.Interpolated = interpolated

	return token, nil
}

// readColon distinguishes symbols (:foo, :"foo"), scope operators (::) and bare colons
func (t *tokenizer) readColon(start Position) (Token, error) {
	next := t.peekChar()

	switch {
	case next == ':':
		t.readChar()
		t.readChar()

		return t.token(OTHER, start), nil
	case isIdentStart(next):
		t.readChar()
		t.readIdentifierChars()

		return t.token(SYMBOL, start), nil
	case next == '"' || next == '\'':
		t.readChar()

		str, err := t.readString(t.mark())
		if err != nil {
			return Token{}, err
		}

		return Token{Type: SYMBOL, Value: ":" + str.Value, Position: start, Interpolated: str.Interpolated}, nil
	}

	t.readChar()

	return t.token(COLON, start), nil
}

func (t *tokenizer) readVariable(start Position) Token {
	for t.current == '@' || t.current == '$' {
		t.readChar()
	}

	t.readIdentifierChars()

	return t.token(INSTANCE_VARIABLE, start)
}

// readNumber reads integers, decimals and exponents; underscores are digit separators
func (t *tokenizer) readNumber(start Position) Token {
	if t.current == '-' {
		t.readChar()
	}

	digits := func() {
		for unicode.IsDigit(t.current) || (t.current == '_' && unicode.IsDigit(t.peekChar())) {
			t.readChar()
		}
	}

	digits()

	if t.current == '.' && unicode.IsDigit(t.peekChar()) {
		t.readChar()
		digits()
	}

	if t.current == 'e' || t.current == 'E' {
		next := t.peekChar()
		if unicode.IsDigit(next) || next == '-' || next == '+' {
			t.readChar()
			t.readChar()
			digits()
		}
	}

	return t.token(NUMBER, start)
}

// readWord reads identifiers; an identifier directly followed by a single ':' is a LABEL
func (t *tokenizer) readWord(start Position) Token {
	t.readIdentifierChars()

	if t.current == '?' || t.current == '!' {
		t.readChar()
	}

	if t.current == ':' && t.peekChar() != ':' {
		name := t.input[start.Offset:t.offset]
		t.readChar()

		return Token{Type: LABEL, Value: strings.TrimSpace(name), Position: start}
	}

	return t.token(IDENTIFIER, start)
}

func (t *tokenizer) readIdentifierChars() {
	for isIdentPart(t.current) {
		t.readChar()
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '-'
}
