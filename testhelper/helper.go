package testhelper

import (
	"regexp"
	"strings"
	"testing"
)

var (
	whiteSpaces = regexp.MustCompile(`^[ \t]+`)
	leadingTabs = regexp.MustCompile(`^(\t+)`)
)

// templates are indented two spaces per level
func replaceTab(match string) string {
	numTabs := strings.Count(match, "\t")
	return strings.Repeat("  ", numTabs)
}

// TrimIndent removes the indentation of the first content line from a raw
// string literal template. The opening line and a trailing whitespace-only
// line are dropped, and remaining leading tabs become two spaces each.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")

	var indent string
	if len(lines) > 1 {
		indent = whiteSpaces.FindString(lines[1])
	}

	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		lines[i] = leadingTabs.ReplaceAllStringFunc(line, replaceTab)
	}

	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "" {
		lines = lines[:n-1]
	}

	return strings.Join(lines, "\n")
}
