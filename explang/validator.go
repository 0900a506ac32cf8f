package explang

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/shibukawa/snaphaml/tokenizer"
)

// Sentinel errors
var (
	ErrUnbalanced = errors.New("unbalanced brackets in expression")
)

// Validator decides whether text is a syntactically valid expression of the
// host language. It is a diagnostic gate only; nothing is evaluated.
type Validator interface {
	IsValidExpression(text string) bool
}

// ValidatorFunc adapts a function to Validator
type ValidatorFunc func(text string) bool

func (f ValidatorFunc) IsValidExpression(text string) bool {
	return f(text)
}

// CELValidator checks expressions with the CEL parser after rewriting the
// hash-literal forms (symbols, labels, "=>", "**") into CEL map syntax.
type CELValidator struct {
	env *cel.Env
}

// NewCELValidator creates a validator with a permissive CEL environment
func NewCELValidator() (*CELValidator, error) {
	env, err := cel.NewEnv(
		cel.Variable("_", cel.AnyType), // Wildcard variable for parsing
	)
	if err != nil {
		return nil, err
	}

	return &CELValidator{env: env}, nil
}

// IsValidExpression reports whether text parses
func (v *CELValidator) IsValidExpression(text string) bool {
	return v.Check(text) == nil
}

// Check returns the parse error of text, or nil when it is valid
func (v *CELValidator) Check(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty expression", errEmpty)
	}

	expr, err := ToCEL(text)
	if err != nil {
		return err
	}

	_, issues := v.env.Parse(expr)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}

	return nil
}

var errEmpty = errors.New("nothing to validate")

// ToCEL rewrites a hash-literal expression into CEL syntax
func ToCEL(text string) (string, error) {
	tokens, err := tokenizer.NewAttributeTokenizer(text).AllTokens()
	if err != nil {
		return "", err
	}

	var (
		b     strings.Builder
		depth []tokenizer.TokenType
	)

	for _, token := range tokens {
		switch token.Type {
		case tokenizer.EOF:
		case tokenizer.WHITESPACE:
			b.WriteString(" ")
		case tokenizer.SYMBOL:
			b.WriteString(symbolString(token.Value))
		case tokenizer.LABEL:
			b.WriteString(strconv.Quote(token.Value) + ":")
		case tokenizer.ARROW:
			b.WriteString(":")
		case tokenizer.DOUBLE_SPLAT:
			b.WriteString(`"**":`)
		case tokenizer.INSTANCE_VARIABLE:
			b.WriteString(strings.TrimLeft(token.Value, "@$"))
		case tokenizer.NUMBER:
			b.WriteString(strings.ReplaceAll(token.Value, "_", ""))
		case tokenizer.IDENTIFIER:
			switch name := strings.TrimRight(token.Value, "?!"); name {
			case "nil":
				b.WriteString("null")
			default:
				b.WriteString(name)
			}
		case tokenizer.OTHER:
			if token.Value == "::" {
				b.WriteString(".")
			} else {
				b.WriteString(token.Value)
			}
		default:
			if token.IsOpening() {
				depth = append(depth, token.Type)
			}

			if token.IsClosing() {
				if len(depth) == 0 || !matches(depth[len(depth)-1], token.Type) {
					return "", fmt.Errorf("%w: unexpected %q at column %d", ErrUnbalanced, token.Value, token.Position.Column)
				}

				depth = depth[:len(depth)-1]
			}

			b.WriteString(token.Value)
		}
	}

	if len(depth) > 0 {
		return "", fmt.Errorf("%w: %d brackets left open", ErrUnbalanced, len(depth))
	}

	return b.String(), nil
}

func symbolString(symbol string) string {
	name := strings.TrimPrefix(symbol, ":")
	if strings.HasPrefix(name, `"`) || strings.HasPrefix(name, "'") {
		return name
	}

	return strconv.Quote(name)
}

func matches(open, closer tokenizer.TokenType) bool {
	switch open {
	case tokenizer.OPENED_BRACE:
		return closer == tokenizer.CLOSED_BRACE
	case tokenizer.OPENED_BRACKET:
		return closer == tokenizer.CLOSED_BRACKET
	case tokenizer.OPENED_PARENS:
		return closer == tokenizer.CLOSED_PARENS
	}

	return false
}
