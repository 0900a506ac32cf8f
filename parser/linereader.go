package parser

import "strings"

// Line is one physical source line
type Line struct {
	Number int // 1-based
	Text   string
}

// IsBlank reports whether the line holds only whitespace
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// LineReader splits source text into lines and hands them out in order.
// Lookahead is forward only; a consumed line is never returned again.
type LineReader struct {
	lines []string
	pos   int
}

// NewLineReader creates a reader over src. CRLF is normalized and a trailing
// newline does not produce an extra empty line.
func NewLineReader(src string) *LineReader {
	src = strings.TrimPrefix(src, "\ufeff")
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.TrimSuffix(src, "\n")

	var lines []string
	if src != "" {
		lines = strings.Split(src, "\n")
	}

	return &LineReader{lines: lines}
}

// Next consumes the next line
func (r *LineReader) Next() (Line, bool) {
	line, ok := r.Peek()
	if ok {
		r.pos++
	}

	return line, ok
}

// Peek returns the next line without consuming it
func (r *LineReader) Peek() (Line, bool) {
	if r.pos >= len(r.lines) {
		return Line{}, false
	}

	return Line{Number: r.pos + 1, Text: r.lines[r.pos]}, true
}

// Consumed returns the number of the last consumed line, 0 before the first Next
func (r *LineReader) Consumed() int {
	return r.pos
}

// endsWithComma reports whether a script line continues on the next line.
// Character literals "?," and "?\," do not count.
func endsWithComma(text string) bool {
	text = strings.TrimRight(text, " \t")
	if !strings.HasSuffix(text, ",") {
		return false
	}

	return !strings.HasSuffix(text, "?,") && !strings.HasSuffix(text, `?\,`)
}

// joinContinuation appends following physical lines, space separated, while
// text ends with a continuation comma.
func (r *LineReader) joinContinuation(text string) string {
	for endsWithComma(text) {
		next, ok := r.Next()
		if !ok {
			break
		}

		text = strings.TrimRight(text, " \t") + " " + strings.TrimSpace(next.Text)
	}

	return text
}
