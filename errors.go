package snaphaml

import (
	"errors"
	"fmt"
)

// Common errors used throughout the SnapHaml packages
var (
	// Indentation errors
	// ErrIndentMismatch is returned when a dedent does not land on a previously opened level.
	ErrIndentMismatch = errors.New("inconsistent indentation")
	// ErrIllegalNesting indicates an indented block under a construct that cannot have children.
	ErrIllegalNesting = errors.New("illegal nesting")
	// ErrSelfClosingContent indicates a self-closing element that declares content.
	ErrSelfClosingContent = errors.New("self-closing tags can't have content")

	// Grammar errors
	// ErrEmptyExpression indicates a script or statement line without code.
	ErrEmptyExpression = errors.New("no code to evaluate")
	// ErrUnbalancedBrackets indicates an attribute literal whose braces or parentheses do not close.
	ErrUnbalancedBrackets = errors.New("unbalanced brackets")
	// ErrMalformedElement indicates an element header that does not follow the element grammar.
	ErrMalformedElement = errors.New("malformed element")
	// ErrDuplicateAttributes indicates two attribute literals of the same style on one element.
	ErrDuplicateAttributes = errors.New("duplicate attribute literal")
	// ErrUnknownFilter indicates a filter name that is not registered.
	ErrUnknownFilter = errors.New("filter is not defined")
	// ErrIllegalDoctype indicates a doctype token that the output format does not know.
	ErrIllegalDoctype = errors.New("illegal doctype")
	// ErrMidBlockWithoutBlock indicates else/elsif/when/... with no preceding block to continue.
	ErrMidBlockWithoutBlock = errors.New("continuation keyword without a preceding block")
	// ErrUnnecessaryEnd indicates an explicit "- end"; blocks are closed by indentation.
	ErrUnnecessaryEnd = errors.New("blocks are closed by indentation, explicit end is not needed")

	// Compile errors
	// ErrInvalidInterpolation indicates an interpolation marker whose braces never close.
	ErrInvalidInterpolation = errors.New("invalid interpolation")
	// ErrUnparsableExpression indicates an attribute literal that is neither a static hash nor valid code.
	ErrUnparsableExpression = errors.New("unparsable code in attributes")
	// ErrUnknownNode indicates a document node kind the compiler has no arm for.
	ErrUnknownNode = errors.New("unknown document node")

	// Configuration errors
	// ErrConfigValidation is returned when configuration validation fails.
	ErrConfigValidation = errors.New("configuration validation failed")
)

// SyntaxError is a fatal grammar error located at a 1-based source line.
type SyntaxError struct {
	Line    int
	Message string
	Err     error
}

// NewSyntaxError creates a SyntaxError wrapping one of the sentinel errors.
func NewSyntaxError(line int, err error, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Line:    line,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *SyntaxError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}

	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// InterpolationError carries the full text whose interpolation could not be closed.
type InterpolationError struct {
	Line int
	Text string
}

func (e *InterpolationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v: %q", e.Line, ErrInvalidInterpolation, e.Text)
	}

	return fmt.Sprintf("%v: %q", ErrInvalidInterpolation, e.Text)
}

func (e *InterpolationError) Unwrap() error {
	return ErrInvalidInterpolation
}

// UnparsableExpressionError carries the attribute literal rejected by the syntax validator.
type UnparsableExpressionError struct {
	Line int
	Text string
}

func (e *UnparsableExpressionError) Error() string {
	return fmt.Sprintf("line %d: %v: %s", e.Line, ErrUnparsableExpression, e.Text)
}

func (e *UnparsableExpressionError) Unwrap() error {
	return ErrUnparsableExpression
}

// ErrorLine extracts the source line from any error produced by the parser or compiler.
// It returns 0 when the error carries no location.
func ErrorLine(err error) int {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Line
	}

	var ie *InterpolationError
	if errors.As(err, &ie) {
		return ie.Line
	}

	var ue *UnparsableExpressionError
	if errors.As(err, &ue) {
		return ue.Line
	}

	return 0
}
