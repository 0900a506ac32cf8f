package compiler

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/shibukawa/snaphaml"
)

const html5Doctype = "<!DOCTYPE html>"

var xhtmlDoctypes = map[string]string{
	"":             `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`,
	"transitional": `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`,
	"strict":       `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">`,
	"frameset":     `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Frameset//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-frameset.dtd">`,
	"5":            html5Doctype,
	"html":         html5Doctype,
	"1.1":          `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">`,
	"basic":        `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML Basic 1.1//EN" "http://www.w3.org/TR/xhtml-basic/xhtml-basic11.dtd">`,
	"mobile":       `<!DOCTYPE html PUBLIC "-//WAPFORUM//DTD XHTML Mobile 1.2//EN" "http://www.openmobilealliance.org/tech/DTD/xhtml-mobile12.dtd">`,
	"rdfa":         `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML+RDFa 1.0//EN" "http://www.w3.org/MarkUp/DTD/xhtml-rdfa-1.dtd">`,
}

var html4Doctypes = map[string]string{
	"":             `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN" "http://www.w3.org/TR/html4/loose.dtd">`,
	"transitional": `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN" "http://www.w3.org/TR/html4/loose.dtd">`,
	"strict":       `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd">`,
	"frameset":     `<!DOCTYPE html PUBLIC "-//W3C//DTD HTML 4.01 Frameset//EN" "http://www.w3.org/TR/html4/frameset.dtd">`,
	"5":            html5Doctype,
	"html":         html5Doctype,
}

// Doctype returns the declaration for a "!!!" token. The xml prolog is only
// written for XHTML; other formats get an empty string. ok is false when the
// token is unknown for every format.
func Doctype(text string, format snaphaml.Format) (string, bool) {
	fields := strings.Fields(cases.Fold().String(text))

	kind := ""
	if len(fields) > 0 {
		kind = fields[0]
	}

	if kind == "xml" {
		if !format.IsXHTML() {
			return "", true
		}

		encoding := "utf-8"
		if len(fields) > 1 {
			encoding = fields[1]
		}

		return "<?xml version='1.0' encoding='" + encoding + "' ?>", true
	}

	if _, known := xhtmlDoctypes[kind]; !known {
		return "", false
	}

	switch format {
	case snaphaml.FormatXHTML:
		return xhtmlDoctypes[kind], true
	case snaphaml.FormatHTML4:
		if doctype, ok := html4Doctypes[kind]; ok {
			return doctype, true
		}

		return html4Doctypes[""], true
	default:
		return html5Doctype, true
	}
}
