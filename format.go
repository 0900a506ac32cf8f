package snaphaml

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format represents the markup flavour the generated output targets.
// It decides doctype text and how boolean attributes are written.
type Format string

const (
	FormatHTML5 Format = "html5"
	FormatXHTML Format = "xhtml"
	FormatHTML4 Format = "html4"
)

// ParseFormat normalizes a user supplied format token ("HTML5", "Xhtml", ...).
func ParseFormat(token string) (Format, bool) {
	switch f := Format(cases.Fold().String(token)); f {
	case FormatHTML5, FormatXHTML, FormatHTML4:
		return f, true
	case "html", "":
		return FormatHTML5, true
	default:
		return "", false
	}
}

// IsHTML reports whether boolean attributes may be emitted bare.
func (f Format) IsHTML() bool {
	return f != FormatXHTML
}

// IsXHTML reports whether the format is XML-based.
func (f Format) IsXHTML() bool {
	return f == FormatXHTML
}

// Title returns a display form of the format name such as "Html5".
func (f Format) Title() string {
	return cases.Title(language.Und).String(string(f))
}
