package snaphaml

import (
	"log/slog"
	"slices"
)

// Options configures a single parse/compile run. The zero value is not usable,
// start from DefaultOptions.
type Options struct {
	// EscapeHTML makes "=" scripts and interpolations escape their values by default
	EscapeHTML bool
	// Format selects doctype table and boolean attribute style
	Format Format
	// AutoClose lists tags rendered self-closing when they have no content
	AutoClose []string
	// Preserve lists tags whose inner whitespace is kept intact
	Preserve []string
	// TabWidth is the width a tab counts for when measuring indentation
	TabWidth int
	// BlockEnd is the statement emitted to close a block opened by a script
	BlockEnd string
	// HyphenateDataAttrs turns data: {foo_bar: 1} into data-foo-bar
	HyphenateDataAttrs bool
	// Logger receives debug traces; nil disables logging
	Logger *slog.Logger
}

// DefaultAutoClose is the set of void elements.
var DefaultAutoClose = []string{
	"area", "base", "basefont", "br", "col", "command", "embed", "frame",
	"hr", "img", "input", "isindex", "keygen", "link", "menuitem", "meta",
	"param", "source", "track", "wbr",
}

// DefaultPreserve is the set of tags that keep inner whitespace.
var DefaultPreserve = []string{"pre", "textarea", "code"}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		EscapeHTML:         true,
		Format:             FormatHTML5,
		AutoClose:          slices.Clone(DefaultAutoClose),
		Preserve:           slices.Clone(DefaultPreserve),
		TabWidth:           2,
		BlockEnd:           "end",
		HyphenateDataAttrs: true,
	}
}

// IsAutoClose reports whether tag belongs to the auto-closing set.
func (o *Options) IsAutoClose(tag string) bool {
	return slices.Contains(o.AutoClose, tag)
}

// IsPreserve reports whether tag belongs to the whitespace-preserving set.
func (o *Options) IsPreserve(tag string) bool {
	return slices.Contains(o.Preserve, tag)
}

// Log returns the configured logger or a logger that discards everything.
func (o *Options) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.New(slog.DiscardHandler)
}
