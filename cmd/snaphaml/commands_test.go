package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
)

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	assert.NoError(t, writeFile(path, content))

	return path
}

func newContext(t *testing.T, out *bytes.Buffer) *Context {
	t.Helper()

	return &Context{
		Config: filepath.Join(t.TempDir(), "missing.yaml"),
		Quiet:  true,
		Out:    out,
	}
}

func TestCollectTemplates(t *testing.T) {
	dir := t.TempDir()
	a := writeTemplate(t, dir, "a.haml", "%p a")
	b := writeTemplate(t, dir, "sub/b.haml", "%p b")
	c := writeTemplate(t, dir, "notes.txt", "not a template")

	t.Run("WalkDirectory", func(t *testing.T) {
		files, err := collectTemplates([]string{dir}, []string{".haml"})
		assert.NoError(t, err)
		assert.Equal(t, []string{a, b}, files)
	})

	t.Run("ExplicitFileKeepsExtension", func(t *testing.T) {
		files, err := collectTemplates([]string{c, a, a}, []string{".haml"})
		assert.NoError(t, err)
		assert.Equal(t, []string{a, c}, files)
	})

	t.Run("NothingFound", func(t *testing.T) {
		_, err := collectTemplates([]string{t.TempDir()}, []string{".haml"})
		assert.IsError(t, err, ErrNoTemplates)
	})
}

func TestCompileCmd(t *testing.T) {
	dir := t.TempDir()
	page := writeTemplate(t, dir, "page.haml", "%p= user.name")

	t.Run("YAMLToStdout", func(t *testing.T) {
		var out bytes.Buffer

		cmd := &CompileCmd{Files: []string{page}, Output: "yaml", Flatten: true}
		assert.NoError(t, cmd.Run(newContext(t, &out)))
		assert.Contains(t, out.String(), "EMIT_DYNAMIC")
		assert.Contains(t, out.String(), "user.name")
	})

	t.Run("JSONToDirectory", func(t *testing.T) {
		var out bytes.Buffer

		outDir := filepath.Join(t.TempDir(), "generated")
		cmd := &CompileCmd{Files: []string{page}, Dir: outDir}
		assert.NoError(t, cmd.Run(newContext(t, &out)))
		assert.Equal(t, 0, out.Len())

		data, err := os.ReadFile(filepath.Join(outDir, "page.json"))
		assert.NoError(t, err)

		var dump map[string]any
		assert.NoError(t, json.Unmarshal(data, &dump))
		assert.Equal(t, "multi", dump["tree"].(map[string]any)["type"])
		_, hasInstructions := dump["instructions"]
		assert.False(t, hasInstructions)
	})

	t.Run("TextListsInstructions", func(t *testing.T) {
		var out bytes.Buffer

		cmd := &CompileCmd{Files: []string{page}, Output: "text", Flatten: true}
		assert.NoError(t, cmd.Run(newContext(t, &out)))
		assert.Contains(t, out.String(), "# "+page+"\n(multi (tag p (attrs) (escape true (dynamic \"user.name\"))) (mknl))\n")
		assert.Contains(t, out.String(), "1: EMIT_DYNAMIC \"user.name\" escape=true\n")
	})

	t.Run("UnsupportedOutput", func(t *testing.T) {
		cmd := &CompileCmd{Files: []string{page}, Output: "xml"}
		assert.IsError(t, cmd.Run(newContext(t, &bytes.Buffer{})), ErrUnsupportedOutput)
	})

	t.Run("CompileErrorPointsAtSource", func(t *testing.T) {
		bad := writeTemplate(t, dir, "bad.haml", "%p\n  hello #{name")

		cmd := &CompileCmd{Files: []string{bad}}
		err := cmd.Run(newContext(t, &bytes.Buffer{}))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bad.haml:2:")
	})
}

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "good.haml", "%ul\n  - items.each do |item|\n    %li= item")
	writeTemplate(t, dir, "bad.haml", "%p/\n  %span")

	t.Run("Text", func(t *testing.T) {
		var out bytes.Buffer

		cmd := &ValidateCmd{Files: []string{dir}, Format: "text"}
		err := cmd.Run(newContext(t, &out))
		assert.IsError(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "1 of 2 templates")
		assert.Contains(t, out.String(), "bad.haml:2:")
		assert.Contains(t, out.String(), "\n  %span\n  ^^^^^\n")
	})

	t.Run("JSON", func(t *testing.T) {
		var out bytes.Buffer

		cmd := &ValidateCmd{Files: []string{dir}, Format: "json"}
		assert.IsError(t, cmd.Run(newContext(t, &out)), ErrValidationFailed)

		var diagnostics []struct {
			Line       int    `json:"line"`
			SourceLine string `json:"source_line"`
		}
		assert.NoError(t, json.Unmarshal(out.Bytes(), &diagnostics))
		assert.Equal(t, 1, len(diagnostics))
		assert.Equal(t, 2, diagnostics[0].Line)
		assert.Equal(t, "  %span", diagnostics[0].SourceLine)
	})

	t.Run("AllValid", func(t *testing.T) {
		var out bytes.Buffer

		cmd := &ValidateCmd{Files: []string{filepath.Join(dir, "good.haml")}, Format: "text"}
		assert.NoError(t, cmd.Run(newContext(t, &out)))
	})
}

func TestParseCmd(t *testing.T) {
	var out bytes.Buffer

	page := writeTemplate(t, t.TempDir(), "page.haml", "%div\n  %p hello")

	cmd := &ParseCmd{File: page}
	assert.NoError(t, cmd.Run(newContext(t, &out)))
	assert.Contains(t, out.String(), "1: ")
	assert.Contains(t, out.String(), "\n  2: ")
}

func TestFiltersCmd(t *testing.T) {
	var out bytes.Buffer

	config := writeTemplate(t, t.TempDir(), "snaphaml.yaml", "filters:\n  disabled: [markdown]\n")

	ctx := newContext(t, &out)
	ctx.Config = config

	cmd := &FiltersCmd{}
	assert.NoError(t, cmd.Run(ctx))
	assert.Contains(t, out.String(), ":plain\n")
	assert.NotContains(t, out.String(), ":markdown")
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer

	cmd := &VersionCmd{}
	assert.NoError(t, cmd.Run(newContext(t, &out)))
	assert.Equal(t, "SnapHaml v0.1.0\nFormats: Html5, Xhtml, Html4\n", out.String())
}

func TestCLIParsing(t *testing.T) {
	k, err := kong.New(&CLI)
	assert.NoError(t, err)

	kctx, err := k.Parse([]string{"--config", "custom.yaml", "-v", "compile", "a.haml", "--output", "yaml", "--flatten"})
	assert.NoError(t, err)
	assert.Equal(t, "compile", kctx.Selected().Name)
	assert.Equal(t, "custom.yaml", CLI.Config)
	assert.True(t, CLI.Verbose)
	assert.Equal(t, "yaml", CLI.Compile.Output)
	assert.True(t, CLI.Compile.Flatten)
	assert.Equal(t, 1, len(CLI.Compile.Files))
	assert.Equal(t, "a.haml", filepath.Base(CLI.Compile.Files[0]))

	_, err = k.Parse([]string{"validate", "--format", "xml"})
	assert.Error(t, err)
}
