package filter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/intermediate"
)

// Plain writes the block as text, interpolating #{} markers
type Plain struct{}

func (Plain) Compile(ctx *Context, lines []string) (intermediate.Node, error) {
	return ctx.interpolateLines(lines, "\n", ctx.EscapeHTML)
}

func (Plain) NeedsTrailingNewline() bool { return true }

// Escaped writes the block HTML-escaped
type Escaped struct{}

func (Escaped) Compile(ctx *Context, lines []string) (intermediate.Node, error) {
	body, err := ctx.interpolateLines(lines, "\n", true)
	if err != nil {
		return nil, err
	}

	return &intermediate.Escape{Flag: true, Child: body}, nil
}

func (Escaped) NeedsTrailingNewline() bool { return true }

// Preserve writes the block on one output line, newlines become &#x000A;
type Preserve struct{}

func (Preserve) Compile(ctx *Context, lines []string) (intermediate.Node, error) {
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}

	return ctx.interpolateLines(lines[:end], "&#x000A;", ctx.EscapeHTML)
}

func (Preserve) NeedsTrailingNewline() bool { return true }

// Javascript wraps the block in a script tag
type Javascript struct{}

func (Javascript) Compile(ctx *Context, lines []string) (intermediate.Node, error) {
	switch ctx.Format {
	case snaphaml.FormatXHTML:
		return wrap(ctx, lines, "<script type='text/javascript'>\n  //<![CDATA[\n", "    ", "\n  //]]>\n</script>")
	case snaphaml.FormatHTML4:
		return wrap(ctx, lines, "<script type='text/javascript'>\n", "  ", "\n</script>")
	default:
		return wrap(ctx, lines, "<script>\n", "  ", "\n</script>")
	}
}

func (Javascript) NeedsTrailingNewline() bool { return true }

// CSS wraps the block in a style tag
type CSS struct{}

func (CSS) Compile(ctx *Context, lines []string) (intermediate.Node, error) {
	switch ctx.Format {
	case snaphaml.FormatXHTML:
		return wrap(ctx, lines, "<style type='text/css'>\n  /*<![CDATA[*/\n", "    ", "\n  /*]]>*/\n</style>")
	case snaphaml.FormatHTML4:
		return wrap(ctx, lines, "<style type='text/css'>\n", "  ", "\n</style>")
	default:
		return wrap(ctx, lines, "<style>\n", "  ", "\n</style>")
	}
}

func (CSS) NeedsTrailingNewline() bool { return true }

// CDATA wraps the block in a CDATA section
type CDATA struct{}

func (CDATA) Compile(ctx *Context, lines []string) (intermediate.Node, error) {
	return wrap(ctx, lines, "<![CDATA[\n", "    ", "\n]]>")
}

func (CDATA) NeedsTrailingNewline() bool { return true }

// wrap indents the non-blank lines, drops trailing blank ones and surrounds
// the body with open and closing
func wrap(ctx *Context, lines []string, open, indent, closing string) (intermediate.Node, error) {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	indented := make([]string, 0, end)

	for _, line := range lines[:end] {
		if strings.TrimSpace(line) == "" {
			indented = append(indented, "")
		} else {
			indented = append(indented, indent+line)
		}
	}

	body, err := ctx.interpolateLines(indented, "\n", false)
	if err != nil {
		return nil, err
	}

	return intermediate.NewMulti(
		&intermediate.Static{Text: open},
		body,
		&intermediate.Static{Text: closing},
	), nil
}

// Markdown renders the block with goldmark at compile time
type Markdown struct {
	html  goldmark.Markdown
	xhtml goldmark.Markdown
}

// NewMarkdown creates the markdown filter
func NewMarkdown() *Markdown {
	newMarkdown := func(opts ...renderer.Option) goldmark.Markdown {
		return goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(opts...),
		)
	}

	return &Markdown{
		html:  newMarkdown(),
		xhtml: newMarkdown(html.WithXHTML()),
	}
}

func (m *Markdown) Compile(ctx *Context, lines []string) (intermediate.Node, error) {
	source := make([]string, 0, len(lines))

	for i, line := range lines {
		node, err := ctx.interpolate(line, ctx.bodyLine(i), false)
		if err != nil {
			return nil, err
		}

		static, ok := node.(*intermediate.Static)
		if !ok {
			return nil, fmt.Errorf("%w: markdown is rendered at compile time (line %d)", ErrDynamicContent, ctx.bodyLine(i))
		}

		source = append(source, static.Text)
	}

	md := m.html
	if ctx.Format.IsXHTML() {
		md = m.xhtml
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(strings.Join(source, "\n")), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	return &intermediate.Static{Text: strings.TrimRight(buf.String(), "\n")}, nil
}

func (m *Markdown) NeedsTrailingNewline() bool { return true }
