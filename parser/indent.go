package parser

import (
	"strconv"
	"strings"

	snaphaml "github.com/shibukawa/snaphaml"
)

// IndentTracker maintains the stack of open indentation widths and reports
// nesting changes through the enter and leave callbacks.
type IndentTracker struct {
	tabWidth int
	stack    []int
	enter    func(line int) error
	leave    func() error
}

// NewIndentTracker creates a tracker. enter is called with the line number of
// the line that opens a deeper level; leave is called once per closed level.
func NewIndentTracker(tabWidth int, enter func(line int) error, leave func() error) *IndentTracker {
	if tabWidth <= 0 {
		tabWidth = 2
	}

	if enter == nil {
		enter = func(int) error { return nil }
	}

	if leave == nil {
		leave = func() error { return nil }
	}

	return &IndentTracker{
		tabWidth: tabWidth,
		enter:    enter,
		leave:    leave,
	}
}

// Width measures the leading whitespace of prefix
func (t *IndentTracker) Width(prefix string) int {
	w := 0

	for _, r := range prefix {
		switch r {
		case ' ':
			w++
		case '\t':
			w += t.tabWidth
		default:
			return w
		}
	}

	return w
}

func splitIndent(text string) (prefix, rest string) {
	i := 0
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}

	return text[:i], text[i:]
}

// Process consumes one non-blank line and returns its text without indentation
// and the indentation itself.
func (t *IndentTracker) Process(text string, line int) (dedented, prefix string, err error) {
	prefix, dedented = splitIndent(text)
	w := t.Width(prefix)

	if len(t.stack) == 0 {
		t.stack = append(t.stack, w)
		return dedented, prefix, nil
	}

	top := t.stack[len(t.stack)-1]

	switch {
	case w == top:
	case w > top:
		t.stack = append(t.stack, w)
		if err := t.enter(line); err != nil {
			return "", "", err
		}
	default:
		for len(t.stack) > 1 && w < t.stack[len(t.stack)-1] {
			t.stack = t.stack[:len(t.stack)-1]
			if err := t.leave(); err != nil {
				return "", "", err
			}
		}

		if top = t.stack[len(t.stack)-1]; w != top {
			return "", "", snaphaml.NewSyntaxError(line, snaphaml.ErrIndentMismatch,
				"the line was indented %d columns, which matches no open level (%s)", w, t.levels())
		}
	}

	return dedented, prefix, nil
}

// Finish closes every level above the base at end of input
func (t *IndentTracker) Finish() error {
	for len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
		if err := t.leave(); err != nil {
			return err
		}
	}

	return nil
}

// Depth returns the current nesting depth, 0 at the base level
func (t *IndentTracker) Depth() int {
	if len(t.stack) == 0 {
		return 0
	}

	return len(t.stack) - 1
}

// Current returns the width of the innermost open level
func (t *IndentTracker) Current() int {
	if len(t.stack) == 0 {
		return 0
	}

	return t.stack[len(t.stack)-1]
}

func (t *IndentTracker) levels() string {
	widths := make([]string, len(t.stack))
	for i, w := range t.stack {
		widths[i] = strconv.Itoa(w)
	}

	return strings.Join(widths, ", ")
}
