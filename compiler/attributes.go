package compiler

import (
	"errors"
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"

	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/explang"
	"github.com/shibukawa/snaphaml/intermediate"
	"github.com/shibukawa/snaphaml/parser"
	tok "github.com/shibukawa/snaphaml/tokenizer"
)

// errNotStatic marks a literal that is not a plain associative structure
var errNotStatic = errors.New("not a static attribute hash")

// BooleanAttributes are written bare in HTML formats when their value is true
var BooleanAttributes = []string{
	"allowfullscreen", "async", "autobuffer", "autofocus", "autoplay", "checked", "controls",
	"default", "defer", "disabled", "formnovalidate", "hidden", "inert", "ismap", "itemscope",
	"loop", "multiple", "muted", "novalidate", "open", "pubdate", "readonly", "required",
	"reversed", "scoped", "seamless", "selected", "sortable", "truespeed", "typemustmatch",
}

// AttributeAnalyzer decides which attributes of an element are known at
// compile time and lowers them.
type AttributeAnalyzer struct {
	validator explang.Validator
	format    snaphaml.Format
	hyphenate bool
}

// NewAttributeAnalyzer creates an analyzer. validator judges literals that are
// not static hashes.
func NewAttributeAnalyzer(validator explang.Validator, opts snaphaml.Options) *AttributeAnalyzer {
	return &AttributeAnalyzer{
		validator: validator,
		format:    opts.Format,
		hyphenate: opts.HyphenateDataAttrs,
	}
}

// entry is one key of an attribute literal
type entry struct {
	key   string
	raw   string   // value source
	value *literal // nil when the value is only known at run time
	line  int
}

// Analyze returns an *intermediate.Attrs when every attribute folds at
// compile time and an *intermediate.AttrsCode otherwise.
func (a *AttributeAnalyzer) Analyze(el *parser.Element) (intermediate.Node, error) {
	if el.OldAttrs == "" && el.NewAttrs == "" {
		return &intermediate.Attrs{Items: shorthandAttrs(el)}, nil
	}

	var htmlEntries []entry

	if el.NewAttrs != "" {
		parsed, err := parseHTMLAttributes(el.NewAttrs, el.Line())
		if err != nil {
			return nil, &snaphaml.UnparsableExpressionError{Line: el.Line(), Text: el.NewAttrs}
		}

		htmlEntries = parsed
	}

	var entries []entry

	if el.OldAttrs != "" {
		parsed, err := parseHash(el.OldAttrs, el.Line())
		if err != nil {
			if a.validator != nil && !a.validator.IsValidExpression(el.OldAttrs) {
				return nil, &snaphaml.UnparsableExpressionError{Line: el.Line(), Text: el.OldAttrs}
			}

			return runtimeAttrs(el, htmlEntries), nil
		}

		entries = parsed
	}

	entries = append(entries, htmlEntries...)

	attrs, ok := a.fold(el, entries)
	if !ok {
		return runtimeAttrs(el, htmlEntries), nil
	}

	return attrs, nil
}

// fold merges shorthand and literal attributes; false means a special
// attribute is dynamic and the whole set has to be built at run time
func (a *AttributeAnalyzer) fold(el *parser.Element, entries []entry) (*intermediate.Attrs, bool) {
	classes := slices.Clone(el.Classes)
	ids := slices.Clone(el.IDs)
	attrs := map[string]*intermediate.Attr{}

	for _, e := range entries {
		special := e.key == "class" || e.key == "id" || e.key == "data" || slices.Contains(BooleanAttributes, e.key)

		if e.value == nil {
			if special {
				return nil, false
			}

			attrs[e.key] = &intermediate.Attr{
				Name:  e.key,
				Value: &intermediate.Escape{Flag: true, Child: &intermediate.Dynamic{Code: e.raw, Line: e.line}},
			}

			continue
		}

		switch e.key {
		case "class":
			classes = append(classes, e.value.words()...)
		case "id":
			ids = append(ids, e.value.parts()...)
		default:
			a.set(attrs, e.key, e.value)
		}
	}

	if len(classes) > 0 {
		if len(classes) > len(el.Classes) {
			slices.Sort(classes)
			classes = slices.Compact(classes)
		}

		attrs["class"] = staticAttr("class", strings.Join(classes, " "))
	}

	if len(ids) > 0 {
		attrs["id"] = staticAttr("id", strings.Join(ids, "_"))
	}

	result := &intermediate.Attrs{}
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		result.Items = append(result.Items, attrs[name])
	}

	return result, true
}

// set stores a literal value under name; hashes expand to name-key attributes
func (a *AttributeAnalyzer) set(attrs map[string]*intermediate.Attr, name string, value *literal) {
	switch value.kind {
	case hashLiteral:
		for i, key := range value.keys {
			if name == "data" && a.hyphenate {
				key = strings.ReplaceAll(key, "_", "-")
			}

			a.set(attrs, name+"-"+key, value.values[i])
		}
	case boolLiteral, nilLiteral:
		if !value.flag {
			delete(attrs, name)
			return
		}

		if a.format.IsHTML() {
			attrs[name] = &intermediate.Attr{Name: name}
		} else {
			attrs[name] = staticAttr(name, name)
		}
	default:
		attrs[name] = staticAttr(name, value.String())
	}
}

func staticAttr(name, value string) *intermediate.Attr {
	return &intermediate.Attr{Name: name, Value: &intermediate.Static{Text: html.EscapeString(value)}}
}

// shorthandAttrs returns class and id from .class/#id, classes in source order
func shorthandAttrs(el *parser.Element) []*intermediate.Attr {
	var attrs []*intermediate.Attr

	if len(el.Classes) > 0 {
		attrs = append(attrs, staticAttr("class", strings.Join(el.Classes, " ")))
	}

	if len(el.IDs) > 0 {
		attrs = append(attrs, staticAttr("id", strings.Join(el.IDs, "_")))
	}

	return attrs
}

func runtimeAttrs(el *parser.Element, htmlEntries []entry) *intermediate.AttrsCode {
	code := &intermediate.AttrsCode{Base: shorthandAttrs(el), Line: el.Line()}

	if el.OldAttrs != "" {
		code.Sources = append(code.Sources, el.OldAttrs)
	}

	if len(htmlEntries) > 0 {
		pairs := make([]string, 0, len(htmlEntries))
		for _, e := range htmlEntries {
			pairs = append(pairs, quoteKey(e.key)+" => "+e.raw)
		}

		code.Sources = append(code.Sources, "{"+strings.Join(pairs, ", ")+"}")
	}

	return code
}

func quoteKey(key string) string {
	return `"` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

//
// Grammar of attribute literals
//

var (
	space        = tokenType(tok.WHITESPACE)
	label        = tokenType(tok.LABEL)
	arrow        = tokenType(tok.ARROW)
	colon        = tokenType(tok.COLON)
	comma        = tokenType(tok.COMMA)
	equal        = tokenType(tok.EQUAL)
	number       = tokenType(tok.NUMBER)
	identifier   = tokenType(tok.IDENTIFIER)
	variable     = tokenType(tok.INSTANCE_VARIABLE)
	anyString    = tokenType(tok.STRING)
	braceOpen    = tokenType(tok.OPENED_BRACE)
	braceClose   = tokenType(tok.CLOSED_BRACE)
	bracketOpen  = tokenType(tok.OPENED_BRACKET)
	bracketClose = tokenType(tok.CLOSED_BRACKET)
	dot          = other(".")

	plainString = staticToken(tok.STRING)
	plainSymbol = staticToken(tok.SYMBOL)
	keyword     = word("true", "false", "nil")

	sp  = pc.Drop(pc.ZeroOrMore("space", space))
	eos = pc.EOS[tok.Token]()

	// hash keys: foo:, "foo":, :foo =>, "foo" =>
	hashKey = pc.Or(
		tag("label", label),
		tag("string-label", plainString, colon),
		tag("symbol", plainSymbol, sp, arrow),
		tag("string", plainString, sp, arrow),
	)

	array = pc.Seq(
		bracketOpen, sp,
		pc.Optional(pc.Seq(
			lazyLiteral, sp,
			pc.ZeroOrMore("array items", pc.Seq(comma, sp, lazyLiteral, sp)),
			pc.Optional(pc.Seq(comma, sp)),
		)),
		bracketClose,
	)

	entryKey = pc.Seq(sp, hashKey)
	hashPair = pc.Seq(hashKey, sp, lazyLiteral)

	hash = pc.Seq(
		braceOpen, sp,
		pc.Optional(pc.Seq(
			hashPair, sp,
			pc.ZeroOrMore("hash pairs", pc.Seq(comma, sp, hashPair, sp)),
			pc.Optional(pc.Seq(comma, sp)),
		)),
		braceClose,
	)

	literalValue pc.Parser[tok.Token]
	staticValue  pc.Parser[tok.Token]

	// name="value", name=variable, name
	htmlName  = pc.Or(pc.Seq(label, identifier), identifier)
	htmlValue = pc.Or(
		anyString,
		number,
		pc.Seq(pc.Or(variable, identifier), pc.ZeroOrMore("method chain", pc.Seq(dot, identifier))),
	)
	htmlAttribute = pc.Or(
		tag("pair", htmlName, sp, equal, sp, htmlValue),
		tag("bare", htmlName),
	)
)

func init() {
	literalValue = pc.Or(plainString, plainSymbol, number, keyword, array, hash)
	staticValue = pc.Seq(sp, literalValue, sp, eos)
}

func lazyLiteral(pctx *pc.ParseContext[tok.Token], tokens []pc.Token[tok.Token]) (int, []pc.Token[tok.Token], error) {
	return literalValue(pctx, tokens)
}

func tokenType(types ...tok.TokenType) pc.Parser[tok.Token] {
	return func(pctx *pc.ParseContext[tok.Token], tokens []pc.Token[tok.Token]) (int, []pc.Token[tok.Token], error) {
		if len(tokens) > 0 && slices.Contains(types, tokens[0].Val.Type) {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

// staticToken matches strings and symbols without interpolation
func staticToken(tokenType tok.TokenType) pc.Parser[tok.Token] {
	return func(pctx *pc.ParseContext[tok.Token], tokens []pc.Token[tok.Token]) (int, []pc.Token[tok.Token], error) {
		if len(tokens) > 0 && tokens[0].Val.Type == tokenType && !tokens[0].Val.Interpolated {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

func word(words ...string) pc.Parser[tok.Token] {
	return func(pctx *pc.ParseContext[tok.Token], tokens []pc.Token[tok.Token]) (int, []pc.Token[tok.Token], error) {
		if len(tokens) > 0 && tokens[0].Val.Type == tok.IDENTIFIER && slices.Contains(words, tokens[0].Val.Value) {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

func other(value string) pc.Parser[tok.Token] {
	return func(pctx *pc.ParseContext[tok.Token], tokens []pc.Token[tok.Token]) (int, []pc.Token[tok.Token], error) {
		if len(tokens) > 0 && tokens[0].Val.Type == tok.OTHER && tokens[0].Val.Value == value {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

func tag(typeStr string, p ...pc.Parser[tok.Token]) pc.Parser[tok.Token] {
	return pc.Trans(pc.Seq(p...), func(pctx *pc.ParseContext[tok.Token], src []pc.Token[tok.Token]) (converted []pc.Token[tok.Token], err error) {
		if len(src) > 0 {
			src[0].Type = typeStr
		}

		return src, nil
	})
}

func newParseContext() *pc.ParseContext[tok.Token] {
	pctx := pc.NewParseContext[tok.Token]()
	pctx.OrMode = pc.OrModeTryFast

	return pctx
}

func tokenize(blob string, line int) ([]pc.Token[tok.Token], error) {
	tokens, err := tok.NewAttributeTokenizer(blob, tok.TokenizerOptions{StartLine: line}).AllTokens()
	if err != nil {
		return nil, err
	}

	results := make([]pc.Token[tok.Token], 0, len(tokens))

	for _, token := range tokens {
		if token.Type == tok.EOF {
			break
		}

		results = append(results, pc.Token[tok.Token]{
			Type: "raw",
			Pos: &pc.Pos{
				Line:  token.Position.Line,
				Col:   token.Position.Column,
				Index: token.Position.Offset,
			},
			Val: token,
			Raw: token.Value,
		})
	}

	return results, nil
}

func toSrc(tokens []pc.Token[tok.Token]) string {
	var b strings.Builder
	for _, token := range tokens {
		b.WriteString(token.Raw)
	}

	return strings.TrimSpace(b.String())
}

// parseHash splits a {...} literal into entries
func parseHash(blob string, line int) ([]entry, error) {
	tokens, err := tokenize(blob, line)
	if err != nil {
		return nil, err
	}

	body, err := unwrap(tokens)
	if err != nil {
		return nil, err
	}

	parts := splitTopLevel(body)
	pctx := newParseContext()
	entries := make([]entry, 0, len(parts))

	for i, part := range parts {
		if toSrc(part) == "" {
			if i == len(parts)-1 && i > 0 {
				break // trailing comma
			}

			if len(parts) == 1 {
				return nil, nil // {}
			}

			return nil, errNotStatic
		}

		consumed, match, err := entryKey(pctx, part)
		if err != nil {
			return nil, errNotStatic
		}

		key := keyName(match[0])
		value := part[consumed:]

		raw := toSrc(value)
		if raw == "" {
			return nil, errNotStatic
		}

		e := entry{key: key, raw: raw, line: line}
		if err := e.decode(pctx, value); err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// decode sets the compile time value of e when value is a static literal.
// Other values stay nil and are evaluated at run time.
func (e *entry) decode(pctx *pc.ParseContext[tok.Token], value []pc.Token[tok.Token]) error {
	if _, _, err := staticValue(pctx, value); err != nil {
		return nil
	}

	decoded, err := decodeLiteral(withoutSpace(value))
	if err != nil {
		return fmt.Errorf("attribute %s: %w", e.key, err)
	}

	e.value = decoded

	return nil
}

// parseHTMLAttributes reads a (name="value" other=var flag) literal
func parseHTMLAttributes(blob string, line int) ([]entry, error) {
	tokens, err := tokenize(blob, line)
	if err != nil {
		return nil, err
	}

	if len(tokens) < 2 || tokens[0].Val.Type != tok.OPENED_PARENS || tokens[len(tokens)-1].Val.Type != tok.CLOSED_PARENS {
		return nil, errNotStatic
	}

	tokens = tokens[1 : len(tokens)-1]
	pctx := newParseContext()

	var entries []entry

	for {
		consumed, _, _ := sp(pctx, tokens)
		tokens = tokens[consumed:]

		if len(tokens) == 0 {
			return entries, nil
		}

		consumed, match, err := htmlAttribute(pctx, tokens)
		if err != nil {
			return nil, errNotStatic
		}

		tokens = tokens[consumed:]

		if len(tokens) > 0 && tokens[0].Val.Type != tok.WHITESPACE {
			return nil, errNotStatic
		}

		name := match[0].Val.Value
		rest := match[1:]

		if match[0].Val.Type == tok.LABEL {
			name += ":" + match[1].Val.Value
			rest = match[2:]
		}

		if match[0].Type == "bare" {
			entries = append(entries, entry{key: name, raw: "true", value: &literal{kind: boolLiteral, flag: true}, line: line})
			continue
		}

		value := rest[1:] // after "="
		e := entry{key: name, raw: toSrc(value), line: line}
		if err := e.decode(pctx, value); err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}
}

// unwrap strips the outer braces, rejecting {a} + {b} and other trailing code
func unwrap(tokens []pc.Token[tok.Token]) ([]pc.Token[tok.Token], error) {
	tokens = trimSpace(tokens)
	if len(tokens) < 2 || tokens[0].Val.Type != tok.OPENED_BRACE || tokens[len(tokens)-1].Val.Type != tok.CLOSED_BRACE {
		return nil, errNotStatic
	}

	depth := 0

	for i, token := range tokens {
		switch {
		case token.Val.IsOpening():
			depth++
		case token.Val.IsClosing():
			depth--
			if depth == 0 && i != len(tokens)-1 {
				return nil, errNotStatic
			}
		}
	}

	if depth != 0 {
		return nil, errNotStatic
	}

	return tokens[1 : len(tokens)-1], nil
}

// splitTopLevel splits tokens on commas outside of brackets
func splitTopLevel(tokens []pc.Token[tok.Token]) [][]pc.Token[tok.Token] {
	var (
		parts [][]pc.Token[tok.Token]
		start int
		depth int
	)

	for i, token := range tokens {
		switch {
		case token.Val.IsOpening():
			depth++
		case token.Val.IsClosing():
			depth--
		case token.Val.Type == tok.COMMA && depth == 0:
			parts = append(parts, tokens[start:i])
			start = i + 1
		}
	}

	return append(parts, tokens[start:])
}

func trimSpace(tokens []pc.Token[tok.Token]) []pc.Token[tok.Token] {
	for len(tokens) > 0 && tokens[0].Val.Type == tok.WHITESPACE {
		tokens = tokens[1:]
	}

	for len(tokens) > 0 && tokens[len(tokens)-1].Val.Type == tok.WHITESPACE {
		tokens = tokens[:len(tokens)-1]
	}

	return tokens
}

func withoutSpace(tokens []pc.Token[tok.Token]) []tok.Token {
	results := make([]tok.Token, 0, len(tokens))

	for _, token := range tokens {
		if token.Val.Type != tok.WHITESPACE {
			results = append(results, token.Val)
		}
	}

	return results
}

func keyName(token pc.Token[tok.Token]) string {
	switch token.Val.Type {
	case tok.LABEL:
		return token.Val.Value
	case tok.SYMBOL:
		return symbolName(token.Val.Value)
	default:
		return unquote(token.Val.Value)
	}
}
