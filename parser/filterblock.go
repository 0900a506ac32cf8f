package parser

// FilterBlockCollector gathers the raw lines nested under a header line
// (a filter start or a "-#" comment) until indentation returns to the header level.
type FilterBlockCollector struct {
	reader  *LineReader
	tracker *IndentTracker
}

// NewFilterBlockCollector creates a collector reading from reader
func NewFilterBlockCollector(reader *LineReader, tracker *IndentTracker) *FilterBlockCollector {
	return &FilterBlockCollector{
		reader:  reader,
		tracker: tracker,
	}
}

// Collect consumes every following line that is blank or indented deeper than
// headerWidth. Blank lines are kept, including ones at the end of the block.
func (c *FilterBlockCollector) Collect(headerWidth int) []Line {
	var lines []Line

	for {
		line, ok := c.reader.Peek()
		if !ok {
			break
		}

		if !line.IsBlank() {
			prefix, _ := splitIndent(line.Text)
			if c.tracker.Width(prefix) <= headerWidth {
				break
			}
		}

		c.reader.Next()
		lines = append(lines, line)
	}

	return lines
}

// Strip removes the indentation of the first non-blank line from every line,
// keeping deeper relative indentation. Blank lines become empty strings.
func (c *FilterBlockCollector) Strip(lines []Line) []string {
	base := -1

	for _, line := range lines {
		if !line.IsBlank() {
			prefix, _ := splitIndent(line.Text)
			base = c.tracker.Width(prefix)

			break
		}
	}

	result := make([]string, len(lines))

	for i, line := range lines {
		if line.IsBlank() {
			result[i] = ""
			continue
		}

		result[i] = c.cut(line.Text, base)
	}

	return result
}

// cut drops leading whitespace worth up to width columns
func (c *FilterBlockCollector) cut(text string, width int) string {
	w := 0

	for i, r := range text {
		if w >= width {
			return text[i:]
		}

		switch r {
		case ' ':
			w++
		case '\t':
			w += c.tracker.tabWidth
		default:
			return text[i:]
		}
	}

	return ""
}
