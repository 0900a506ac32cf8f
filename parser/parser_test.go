package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	snaphaml "github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/testhelper"
)

type filterSet map[string]bool

func (f filterSet) Has(name string) bool {
	return f[name]
}

func mustParse(t *testing.T, src string) *Document {
	t.Helper()

	doc, err := Parse(src, snaphaml.DefaultOptions(), nil)
	assert.NoError(t, err)

	return doc
}

func child(t *testing.T, doc *Document, parent NodeID, index int) Node {
	t.Helper()

	children := doc.Children(parent)
	assert.True(t, index < len(children), "node %d has %d children", parent, len(children))

	return doc.Node(children[index])
}

func childID(doc *Document, parent NodeID, index int) NodeID {
	return doc.Children(parent)[index]
}

func TestParseElementWithClassesAndText(t *testing.T) {
	doc := mustParse(t, "%span.foo.bar hello")

	el, ok := child(t, doc, doc.Root(), 0).(*Element)
	assert.True(t, ok)
	assert.Equal(t, "span", el.Tag)
	assert.Equal(t, []string{"foo", "bar"}, el.Classes)
	assert.Equal(t, 1, el.Line())
	assert.True(t, el.HasOneline())

	text, ok := doc.Node(el.Oneline).(*Text)
	assert.True(t, ok)
	assert.Equal(t, "hello", text.Content)
	assert.True(t, text.Escape)
	assert.Equal(t, 1, len(doc.Children(doc.Root())))
}

func TestParseNestedInlineScript(t *testing.T) {
	doc := mustParse(t, testhelper.TrimIndent(t, `
		%div
			%span= 1
	`))

	div := childID(doc, doc.Root(), 0)
	span, ok := child(t, doc, div, 0).(*Element)
	assert.True(t, ok)
	assert.Equal(t, "span", span.Tag)
	assert.Equal(t, 2, span.Line())

	script, ok := doc.Node(span.Oneline).(*Script)
	assert.True(t, ok)
	assert.Equal(t, "1", script.Code)
	assert.Equal(t, 2, script.Line())
	assert.False(t, doc.HasChildren(childID(doc, div, 0)))
}

func TestParseSelfClosing(t *testing.T) {
	doc := mustParse(t, "%p/")

	el := child(t, doc, doc.Root(), 0).(*Element)
	assert.True(t, el.SelfClosing)
	assert.False(t, el.HasOneline())

	tests := []struct {
		name string
		src  string
		line int
	}{
		{"nested child", "%p/\n  %span", 2},
		{"trailing text", "%p/ text", 1},
		{"inline script", "%br/= foo", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, snaphaml.DefaultOptions(), nil)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, snaphaml.ErrSelfClosingContent))
			assert.Equal(t, tt.line, snaphaml.ErrorLine(err))
		})
	}
}

func TestParseFilterKeepsBlankLines(t *testing.T) {
	src := ":plain\n  first\n  second\n\n- raise 'boom'"
	doc := mustParse(t, src)

	filter, ok := child(t, doc, doc.Root(), 0).(*Filter)
	assert.True(t, ok)
	assert.Equal(t, "plain", filter.Name)
	assert.Equal(t, []string{"first", "second", ""}, filter.Lines)

	script, ok := child(t, doc, doc.Root(), 1).(*SilentScript)
	assert.True(t, ok)
	assert.Equal(t, 5, script.Line())
	assert.Equal(t, "raise 'boom'", script.Code)
	assert.Equal(t, 5, doc.LastLine())
}

func TestParseFilterRelativeIndentation(t *testing.T) {
	doc := mustParse(t, ":javascript\n    if (a) {\n      b();\n    }\n%p")

	filter := child(t, doc, doc.Root(), 0).(*Filter)
	assert.Equal(t, []string{"if (a) {", "  b();", "}"}, filter.Lines)
	assert.Equal(t, 5, child(t, doc, doc.Root(), 1).Line())
}

func TestParseUnknownFilter(t *testing.T) {
	filters := filterSet{"plain": true}

	_, err := Parse(":plain\n  ok", snaphaml.DefaultOptions(), filters)
	assert.NoError(t, err)

	_, err = Parse("%p\n:sass\n  a: b", snaphaml.DefaultOptions(), filters)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, snaphaml.ErrUnknownFilter))
	assert.Equal(t, 2, snaphaml.ErrorLine(err))

	_, err = Parse(": x", snaphaml.DefaultOptions(), nil)
	assert.True(t, errors.Is(err, snaphaml.ErrUnknownFilter))
}

func TestParseIndentRoundTrip(t *testing.T) {
	for _, step := range []int{1, 2, 4} {
		var lines []string
		for depth := range 6 {
			lines = append(lines, strings.Repeat(" ", depth*step)+"%div")
		}

		doc, err := Parse(strings.Join(lines, "\n"), snaphaml.DefaultOptions(), nil)
		assert.NoError(t, err)

		depths := map[int]int{}
		doc.Walk(func(id NodeID, depth int) {
			depths[doc.Node(id).Line()] = depth
		})

		for i := range lines {
			assert.Equal(t, i, depths[i+1], "step %d line %d", step, i+1)
		}
	}
}

func TestParseTabsCountAsTabWidth(t *testing.T) {
	opts := snaphaml.DefaultOptions()
	opts.TabWidth = 4

	doc, err := Parse("%div\n\t%p\n    %span", opts, nil)
	assert.NoError(t, err)

	p := childID(doc, childID(doc, doc.Root(), 0), 0)
	assert.Equal(t, 2, len(doc.Children(childID(doc, doc.Root(), 0))))
	assert.False(t, doc.HasChildren(p))
}

func TestParseIndentMismatch(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"between two levels", "%div\n    %p\n  %span", 3},
		{"below base", "  %div\n%p", 2},
		{"between nested levels", "%a\n  %b\n    %c\n   %d", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, snaphaml.DefaultOptions(), nil)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, snaphaml.ErrIndentMismatch))
			assert.Equal(t, tt.line, snaphaml.ErrorLine(err))
		})
	}
}

func TestParseIllegalNesting(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"under text", "hello\n  %p"},
		{"under inline text", "%p hello\n  %span"},
		{"under inline script", "%p= x\n  y"},
		{"under doctype", "!!!\n  %p"},
		{"under comment with text", "/ note\n  %p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, snaphaml.DefaultOptions(), nil)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, snaphaml.ErrIllegalNesting))
			assert.Equal(t, 2, snaphaml.ErrorLine(err))
		})
	}
}

func TestParseMidBlockSameLevel(t *testing.T) {
	doc := mustParse(t, testhelper.TrimIndent(t, `
		- if admin
			%p yes
		- elsif guest
			%p maybe
		- else
			%p no
		%footer
	`))

	root := doc.Children(doc.Root())
	assert.Equal(t, 2, len(root))

	ifID := root[0]
	ifNode := doc.Node(ifID).(*SilentScript)
	assert.Equal(t, "if", ifNode.Keyword)
	assert.False(t, ifNode.MidBlock)

	children := doc.Children(ifID)
	assert.Equal(t, 3, len(children))

	elsif := doc.Node(children[1]).(*SilentScript)
	assert.True(t, elsif.MidBlock)
	assert.Equal(t, "elsif", elsif.Keyword)
	assert.Equal(t, 3, elsif.Line())

	elseNode := doc.Node(children[2]).(*SilentScript)
	assert.True(t, elseNode.MidBlock)
	assert.Equal(t, 1, len(doc.Children(children[2])))

	assert.Equal(t, 7, doc.Node(root[1]).Line())
}

func TestParseMidBlockNested(t *testing.T) {
	doc := mustParse(t, testhelper.TrimIndent(t, `
		- case kind
			- when :a
				%p a
			- when :b
				%p b
	`))

	caseID := childID(doc, doc.Root(), 0)
	children := doc.Children(caseID)
	assert.Equal(t, 2, len(children))

	for _, id := range children {
		when := doc.Node(id).(*SilentScript)
		assert.True(t, when.MidBlock)
		assert.Equal(t, 1, len(doc.Children(id)))
	}
}

func TestParseMidBlockErrors(t *testing.T) {
	_, err := Parse("%p\n- else", snaphaml.DefaultOptions(), nil)
	assert.True(t, errors.Is(err, snaphaml.ErrMidBlockWithoutBlock))
	assert.Equal(t, 2, snaphaml.ErrorLine(err))

	_, err = Parse("- if a\n  b\n- end", snaphaml.DefaultOptions(), nil)
	assert.True(t, errors.Is(err, snaphaml.ErrUnnecessaryEnd))
	assert.Equal(t, 3, snaphaml.ErrorLine(err))
}

func TestParseScripts(t *testing.T) {
	tests := []struct {
		src      string
		code     string
		escape   bool
		preserve bool
	}{
		{"= user.name", "user.name", true, false},
		{"&= user.name", "user.name", true, false},
		{"!= user.name", "user.name", false, false},
		{"~ body", "body", true, true},
		{"!~ body", "body", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			doc := mustParse(t, tt.src)

			script := child(t, doc, doc.Root(), 0).(*Script)
			assert.Equal(t, tt.code, script.Code)
			assert.Equal(t, tt.escape, script.Escape)
			assert.Equal(t, tt.preserve, script.Preserve)
		})
	}
}

func TestParseTextForms(t *testing.T) {
	tests := []struct {
		src     string
		content string
		escape  bool
	}{
		{"plain words", "plain words", true},
		{"& <b>#{x}</b>", "<b>#{x}</b>", true},
		{"! <b>#{x}</b>", "<b>#{x}</b>", false},
		{"== hi #{name}", "hi #{name}", true},
		{"!== hi #{name}", "hi #{name}", false},
		{`\= not code`, "= not code", true},
		{"#{x} leads", "#{x} leads", true},
		{". dot", ". dot", true},
		{"!important", "!important", true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			doc := mustParse(t, tt.src)

			text, ok := child(t, doc, doc.Root(), 0).(*Text)
			assert.True(t, ok)
			assert.Equal(t, tt.content, text.Content)
			assert.Equal(t, tt.escape, text.Escape)
		})
	}
}

func TestParseEscapeDefaultFollowsOptions(t *testing.T) {
	opts := snaphaml.DefaultOptions()
	opts.EscapeHTML = false

	doc, err := Parse("= x\ntext", opts, nil)
	assert.NoError(t, err)
	assert.False(t, child(t, doc, doc.Root(), 0).(*Script).Escape)
	assert.False(t, child(t, doc, doc.Root(), 1).(*Text).Escape)
}

func TestParseEmptyExpression(t *testing.T) {
	for _, src := range []string{"=", "-", "%p=", "&= "} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src, snaphaml.DefaultOptions(), nil)
			assert.True(t, errors.Is(err, snaphaml.ErrEmptyExpression))
		})
	}
}

func TestParseContinuation(t *testing.T) {
	doc := mustParse(t, "= link_to 'home',\n    root_path,\n    class: 'x'\n%p")

	script := child(t, doc, doc.Root(), 0).(*Script)
	assert.Equal(t, "link_to 'home', root_path, class: 'x'", script.Code)
	assert.Equal(t, 1, script.Line())
	assert.Equal(t, 4, child(t, doc, doc.Root(), 1).Line())

	doc = mustParse(t, "- c = ?,\n%p")
	assert.Equal(t, "c = ?,", child(t, doc, doc.Root(), 0).(*SilentScript).Code)
	assert.Equal(t, 2, child(t, doc, doc.Root(), 1).Line())
}

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		oldAttrs string
		newAttrs string
	}{
		{"old style", "%a{href: url} link", "{href: url}", ""},
		{"new style", "%a(href=url) link", "", "(href=url)"},
		{"both", "%a{class: 'x'}(href=url)", "{class: 'x'}", "(href=url)"},
		{"nested braces", "%a{data: {id: 1}}", "{data: {id: 1}}", ""},
		{"brace in string", "%a{title: '}'} x", "{title: '}'}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)

			el := child(t, doc, doc.Root(), 0).(*Element)
			assert.Equal(t, tt.oldAttrs, el.OldAttrs)
			assert.Equal(t, tt.newAttrs, el.NewAttrs)
		})
	}
}

func TestParseMultilineAttributes(t *testing.T) {
	doc := mustParse(t, "%a{href: '/',\n   title: 'home'} Home\n%p")

	el := child(t, doc, doc.Root(), 0).(*Element)
	assert.Equal(t, "{href: '/',\n   title: 'home'}", el.OldAttrs)
	assert.Equal(t, 1, el.ExtraLines)
	assert.Equal(t, "Home", doc.Node(el.Oneline).(*Text).Content)
	assert.Equal(t, 3, child(t, doc, doc.Root(), 1).Line())
}

func TestParseElementErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{"empty tag", "% foo", snaphaml.ErrMalformedElement},
		{"empty class", "%p. foo", snaphaml.ErrMalformedElement},
		{"object reference", "%p[user]", snaphaml.ErrMalformedElement},
		{"garbage after header", "%p,foo", snaphaml.ErrMalformedElement},
		{"unbalanced", "%a{href: url", snaphaml.ErrUnbalancedBrackets},
		{"unbalanced new style", "%a(href=url", snaphaml.ErrUnbalancedBrackets},
		{"duplicate old style", "%a{a: 1}{b: 2}", snaphaml.ErrDuplicateAttributes},
		{"duplicate new style", "%a(a=1)(b=2)", snaphaml.ErrDuplicateAttributes},
		{"unclosed conditional", "/[if IE", snaphaml.ErrUnbalancedBrackets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, snaphaml.DefaultOptions(), nil)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
			assert.Equal(t, 1, snaphaml.ErrorLine(err))
		})
	}
}

func TestParseShorthandAndNukes(t *testing.T) {
	doc := mustParse(t, ".item#main.active\n%p<> x")

	div := child(t, doc, doc.Root(), 0).(*Element)
	assert.Equal(t, "div", div.Tag)
	assert.Equal(t, []string{"item", "active"}, div.Classes)
	assert.Equal(t, []string{"main"}, div.IDs)

	p := child(t, doc, doc.Root(), 1).(*Element)
	assert.True(t, p.NukeInner)
	assert.True(t, p.NukeOuter)
	assert.Equal(t, "x", doc.Node(p.Oneline).(*Text).Content)
}

func TestParseDoctypeAndComments(t *testing.T) {
	doc := mustParse(t, testhelper.TrimIndent(t, `
		!!! 5
		/ plain comment
		/[if IE]
			%p old
		/![if !IE] modern
	`))

	doctype := child(t, doc, doc.Root(), 0).(*Doctype)
	assert.Equal(t, "5", doctype.Text)

	comment := child(t, doc, doc.Root(), 1).(*HtmlComment)
	assert.Equal(t, "plain comment", comment.Text)
	assert.Equal(t, "", comment.Conditional)

	conditional := child(t, doc, doc.Root(), 2).(*HtmlComment)
	assert.Equal(t, "if IE", conditional.Conditional)
	assert.Equal(t, 1, len(doc.Children(childID(doc, doc.Root(), 2))))

	revealed := child(t, doc, doc.Root(), 3).(*HtmlComment)
	assert.True(t, revealed.Revealed)
	assert.Equal(t, "if !IE", revealed.Conditional)
	assert.Equal(t, "modern", revealed.Text)
}

func TestParseHamlCommentSwallowsNestedLines(t *testing.T) {
	doc := mustParse(t, "-# hidden\n  %p one\n    %p two\n%footer")

	comment := child(t, doc, doc.Root(), 0).(*HamlComment)
	assert.Equal(t, "hidden", comment.Text)
	assert.Equal(t, 2, comment.Swallowed)
	assert.Equal(t, 4, child(t, doc, doc.Root(), 1).Line())
}

func TestParseKeepEmptyLines(t *testing.T) {
	src := "%p\n\n%span\n"

	doc := mustParse(t, src)
	assert.Equal(t, 2, len(doc.Children(doc.Root())))
	assert.Equal(t, 3, doc.LastLine())

	doc, err := Parse(src, snaphaml.DefaultOptions(), nil, KeepEmptyLines())
	assert.NoError(t, err)
	assert.Equal(t, 3, len(doc.Children(doc.Root())))
	assert.Equal(t, EMPTY, child(t, doc, doc.Root(), 1).Type())
}

func TestDocumentString(t *testing.T) {
	doc := mustParse(t, "%ul\n  %li= item")

	expected := "1: %ul\n  2: %li > SCRIPT(\"item\", escape=true, preserve=false, midblock=false)\n"
	assert.Equal(t, expected, doc.String())
}
