package explang

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCELValidator(t *testing.T) {
	validator, err := NewCELValidator()
	assert.NoError(t, err)

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "arrow hash", input: "{:a => 1}", valid: true},
		{name: "string key arrow", input: `{"a" => 'b'}`, valid: true},
		{name: "label with call", input: "{a: foo(1)}", valid: true},
		{name: "double splat", input: "{**opts}", valid: true},
		{name: "nested map", input: "{data: {user_id: @user.id, role: nil}}", valid: true},
		{name: "array value", input: "{class: [a, b]}", valid: true},
		{name: "predicate method", input: "{checked: item.done?}", valid: true},
		{name: "constant path", input: "{value: Foo::BAR}", valid: true},
		{name: "number separators", input: "{max: 1_000}", valid: true},
		{name: "ternary", input: "{class: active ? 'on' : 'off'}", valid: true},
		{name: "global variable", input: "$title", valid: true},
		{name: "missing value", input: "{a: }", valid: false},
		{name: "bracket mismatch", input: "{a: (1}", valid: false},
		{name: "unclosed", input: "{a: 1", valid: false},
		{name: "stray close", input: "a)", valid: false},
		{name: "dangling operator", input: "1 +", valid: false},
		{name: "unterminated string", input: `{a: "b}`, valid: false},
		{name: "empty", input: "  ", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, validator.IsValidExpression(tt.input))
		})
	}
}

func TestToCEL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "symbol keys", input: "{:a => 1}", expected: `{"a" : 1}`},
		{name: "quoted symbol", input: `{:"data-x" => 1}`, expected: `{"data-x" : 1}`},
		{name: "labels", input: "{a: b, c: nil}", expected: `{"a": b, "c": null}`},
		{name: "instance variables", input: "{x: @a, y: $b}", expected: `{"x": a, "y": b}`},
		{name: "splat", input: "{**h}", expected: `{"**":h}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := ToCEL(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestToCELUnbalanced(t *testing.T) {
	_, err := ToCEL("{a: [1}")
	assert.IsError(t, err, ErrUnbalanced)
}

func TestValidatorFunc(t *testing.T) {
	var v Validator = ValidatorFunc(func(text string) bool { return text == "ok" })

	assert.True(t, v.IsValidExpression("ok"))
	assert.False(t, v.IsValidExpression("ng"))
}
