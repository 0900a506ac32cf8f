// Package filter holds the compilers for ":name" filter blocks.
package filter

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/text/cases"

	"github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/intermediate"
)

// Sentinel errors
var (
	ErrDynamicContent = errors.New("filter does not accept interpolation")
)

// Filter compiles the raw lines of a filter block
type Filter interface {
	Compile(ctx *Context, lines []string) (intermediate.Node, error)
	// NeedsTrailingNewline reports whether output whitespace follows the block
	NeedsTrailingNewline() bool
}

// Context carries what a filter may need from the compiler
type Context struct {
	EscapeHTML bool
	Format     snaphaml.Format
	Line       int // line of the ":name" header

	// Interpolate lowers text containing #{} markers found on source line line
	Interpolate func(text string, line int, escape bool) (intermediate.Node, error)
}

func (c *Context) interpolate(text string, line int, escape bool) (intermediate.Node, error) {
	if c.Interpolate == nil {
		return &intermediate.Static{Text: text}, nil
	}

	return c.Interpolate(text, line, escape)
}

// bodyLine returns the source line of the i-th body line
func (c *Context) bodyLine(i int) int {
	return c.Line + 1 + i
}

// interpolateLines lowers the body one source line at a time. Every line is
// preceded by a Newline so its expressions run on their own generated line,
// and sep is written between lines.
func (c *Context) interpolateLines(lines []string, sep string, escape bool) (intermediate.Node, error) {
	m := intermediate.NewMulti()

	for i, text := range lines {
		if i > 0 && sep != "" {
			m.Append(&intermediate.Static{Text: sep})
		}

		m.Append(&intermediate.Newline{})

		if text == "" {
			continue
		}

		node, err := c.interpolate(text, c.bodyLine(i), escape)
		if err != nil {
			return nil, err
		}

		m.Append(node)
	}

	return m, nil
}

// Registry maps filter names to filters. Names are case-insensitive.
type Registry struct {
	filters map[string]Filter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		filters: map[string]Filter{},
	}
}

// DefaultRegistry creates a registry holding the built-in filters
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("plain", Plain{})
	r.Register("escaped", Escaped{})
	r.Register("preserve", Preserve{})
	r.Register("javascript", Javascript{})
	r.Register("css", CSS{})
	r.Register("cdata", CDATA{})
	r.Register("markdown", NewMarkdown())

	return r
}

// Register adds or replaces a filter
func (r *Registry) Register(name string, f Filter) {
	r.filters[foldName(name)] = f
}

// Lookup finds a filter by name
func (r *Registry) Lookup(name string) (Filter, bool) {
	f, ok := r.filters[foldName(name)]
	return f, ok
}

// Unregister removes a filter; unknown names are ignored
func (r *Registry) Unregister(name string) {
	delete(r.filters, foldName(name))
}

// Has reports whether a filter is registered under name
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.filters))
}

func foldName(name string) string {
	return cases.Fold().String(name)
}

// Compile runs the named filter
func (r *Registry) Compile(name string, ctx *Context, lines []string) (intermediate.Node, bool, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", snaphaml.ErrUnknownFilter, name)
	}

	node, err := f.Compile(ctx, lines)
	if err != nil {
		return nil, false, fmt.Errorf("filter %s: %w", name, err)
	}

	return node, f.NeedsTrailingNewline(), nil
}
