package snaphaml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseConfig_Defaults(t *testing.T) {
	config, err := ParseConfig([]byte("input_dir: views\n"))
	assert.NoError(t, err)

	assert.Equal(t, "views", config.InputDir)
	assert.Equal(t, "json", config.Output.Format)
	assert.Equal(t, "html5", config.Compiler.Format)
	assert.Equal(t, 2, config.Compiler.TabWidth)
	assert.Equal(t, []string{".haml"}, config.Templates.Extensions)

	opts := config.Options()
	assert.True(t, opts.EscapeHTML)
	assert.True(t, opts.HyphenateDataAttrs)
	assert.Equal(t, FormatHTML5, opts.Format)
	assert.Equal(t, "end", opts.BlockEnd)
}

func TestParseConfig_CompilerSection(t *testing.T) {
	src := `
compiler:
  escape_html: false
  format: XHTML
  tab_width: 4
  block_end: "}"
  preserve: [pre]
  hyphenate_data_attrs: false
filters:
  disabled: [markdown]
`
	config, err := ParseConfig([]byte(src))
	assert.NoError(t, err)

	opts := config.Options()
	assert.False(t, opts.EscapeHTML)
	assert.Equal(t, FormatXHTML, opts.Format)
	assert.Equal(t, 4, opts.TabWidth)
	assert.Equal(t, "}", opts.BlockEnd)
	assert.Equal(t, []string{"pre"}, opts.Preserve)
	assert.False(t, opts.HyphenateDataAttrs)
	assert.True(t, opts.IsAutoClose("br"))
	assert.True(t, config.IsFilterDisabled("markdown"))
	assert.False(t, config.IsFilterDisabled("plain"))
}

func TestParseConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown format", "compiler:\n  format: wml\n"},
		{"negative tab width", "compiler:\n  tab_width: -1\n"},
		{"unknown output format", "output:\n  format: toml\n"},
		{"bad extension", "templates:\n  extensions: [haml]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.src))
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigValidation))
		})
	}
}

func TestParseConfig_UnknownFieldIsRejected(t *testing.T) {
	_, err := ParseConfig([]byte("compiler:\n  escape: true\n"))
	assert.Error(t, err)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "./templates", config.InputDir)
}

func TestLoadConfig_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SNAPHAML_VIEWS", "app/views")

	path := filepath.Join(t.TempDir(), "snaphaml.yaml")
	err := os.WriteFile(path, []byte("input_dir: ${SNAPHAML_VIEWS}\noutput:\n  dir: $SNAPHAML_VIEWS/out\n"), 0o600)
	assert.NoError(t, err)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "app/views", config.InputDir)
	assert.Equal(t, "app/views/out", config.Output.Dir)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		token string
		want  Format
		ok    bool
	}{
		{"html5", FormatHTML5, true},
		{"HTML5", FormatHTML5, true},
		{"Xhtml", FormatXHTML, true},
		{"html4", FormatHTML4, true},
		{"html", FormatHTML5, true},
		{"", FormatHTML5, true},
		{"wml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParseFormat(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
