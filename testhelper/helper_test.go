package testhelper

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTrimIndent(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name: "nested",
			src: `
		%div
			%p hello
	`,
			expected: "%div\n  %p hello",
		},
		{
			name: "keeps blank lines",
			src: `
		:plain
			a

			b`,
			expected: ":plain\n  a\n\n  b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrimIndent(t, tt.src))
		})
	}
}
