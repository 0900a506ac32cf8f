package snaphaml

import (
	"fmt"
	"os"
	"regexp"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the SnapHaml configuration file (snaphaml.yaml)
type Config struct {
	InputDir  string          `yaml:"input_dir"`
	Output    OutputConfig    `yaml:"output"`
	Compiler  CompilerConfig  `yaml:"compiler"`
	Filters   FiltersConfig   `yaml:"filters"`
	Templates TemplatesConfig `yaml:"templates"`
}

// OutputConfig represents how compiled trees are written by the CLI
type OutputConfig struct {
	Format  string `yaml:"format"` // json, yaml or text
	Flatten bool   `yaml:"flatten"`
	Dir     string `yaml:"dir"`
}

// CompilerConfig mirrors Options in YAML form
type CompilerConfig struct {
	// EscapeHTML is a pointer to distinguish between unset and false
	EscapeHTML         *bool    `yaml:"escape_html"`
	Format             string   `yaml:"format"`
	AutoClose          []string `yaml:"autoclose"`
	Preserve           []string `yaml:"preserve"`
	TabWidth           int      `yaml:"tab_width"`
	BlockEnd           string   `yaml:"block_end"`
	HyphenateDataAttrs *bool    `yaml:"hyphenate_data_attrs"`
}

// FiltersConfig lists filters disabled for this project
type FiltersConfig struct {
	Disabled []string `yaml:"disabled"`
}

// TemplatesConfig represents template discovery settings
type TemplatesConfig struct {
	Extensions []string `yaml:"extensions"`
}

// LoadConfig loads configuration from the specified file.
// A missing file yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes in strict mode
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Compiler.Format != "" {
		if _, ok := ParseFormat(config.Compiler.Format); !ok {
			return fmt.Errorf("%w: invalid compiler.format '%s': must be one of html5, xhtml, html4", ErrConfigValidation, config.Compiler.Format)
		}
	}

	if config.Compiler.TabWidth < 0 {
		return fmt.Errorf("%w: compiler.tab_width must be non-negative, got %d", ErrConfigValidation, config.Compiler.TabWidth)
	}

	if config.Output.Format != "" {
		validFormats := map[string]bool{
			"json": true,
			"yaml": true,
			"text": true,
		}
		if !validFormats[config.Output.Format] {
			return fmt.Errorf("%w: output.format '%s' is invalid: must be one of json, yaml, text", ErrConfigValidation, config.Output.Format)
		}
	}

	for _, ext := range config.Templates.Extensions {
		if ext == "" || ext[0] != '.' {
			return fmt.Errorf("%w: templates.extensions entry '%s' must start with '.'", ErrConfigValidation, ext)
		}
	}

	return nil
}

func boolPtr(b bool) *bool {
	return &b
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	defaults := DefaultOptions()

	return &Config{
		InputDir: "./templates",
		Output: OutputConfig{
			Format: "json",
			Dir:    "./generated",
		},
		Compiler: CompilerConfig{
			EscapeHTML:         boolPtr(defaults.EscapeHTML),
			Format:             string(defaults.Format),
			AutoClose:          defaults.AutoClose,
			Preserve:           defaults.Preserve,
			TabWidth:           defaults.TabWidth,
			BlockEnd:           defaults.BlockEnd,
			HyphenateDataAttrs: boolPtr(defaults.HyphenateDataAttrs),
		},
		Templates: TemplatesConfig{
			Extensions: []string{".haml"},
		},
	}
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	defaults := getDefaultConfig()

	if config.InputDir == "" {
		config.InputDir = defaults.InputDir
	}

	if config.Output.Format == "" {
		config.Output.Format = defaults.Output.Format
	}

	if config.Output.Dir == "" {
		config.Output.Dir = defaults.Output.Dir
	}

	c := &config.Compiler
	if c.EscapeHTML == nil {
		c.EscapeHTML = defaults.Compiler.EscapeHTML
	}

	if c.Format == "" {
		c.Format = defaults.Compiler.Format
	}

	if c.AutoClose == nil {
		c.AutoClose = defaults.Compiler.AutoClose
	}

	if c.Preserve == nil {
		c.Preserve = defaults.Compiler.Preserve
	}

	if c.TabWidth == 0 {
		c.TabWidth = defaults.Compiler.TabWidth
	}

	if c.BlockEnd == "" {
		c.BlockEnd = defaults.Compiler.BlockEnd
	}

	if c.HyphenateDataAttrs == nil {
		c.HyphenateDataAttrs = defaults.Compiler.HyphenateDataAttrs
	}

	if len(config.Templates.Extensions) == 0 {
		config.Templates.Extensions = defaults.Templates.Extensions
	}
}

// loadEnvFiles loads .env from the current directory when present
func loadEnvFiles() error {
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

// expandConfigEnvVars expands environment variables in path settings
func expandConfigEnvVars(config *Config) {
	config.InputDir = expandEnvVars(config.InputDir)
	config.Output.Dir = expandEnvVars(config.Output.Dir)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// Options converts the compiler section into compile Options
func (c *Config) Options() Options {
	opts := DefaultOptions()

	cc := c.Compiler
	if cc.EscapeHTML != nil {
		opts.EscapeHTML = *cc.EscapeHTML
	}

	if f, ok := ParseFormat(cc.Format); ok {
		opts.Format = f
	}

	if cc.AutoClose != nil {
		opts.AutoClose = slices.Clone(cc.AutoClose)
	}

	if cc.Preserve != nil {
		opts.Preserve = slices.Clone(cc.Preserve)
	}

	if cc.TabWidth > 0 {
		opts.TabWidth = cc.TabWidth
	}

	if cc.BlockEnd != "" {
		opts.BlockEnd = cc.BlockEnd
	}

	if cc.HyphenateDataAttrs != nil {
		opts.HyphenateDataAttrs = *cc.HyphenateDataAttrs
	}

	return opts
}

// IsFilterDisabled reports whether the named filter was switched off in the config
func (c *Config) IsFilterDisabled(name string) bool {
	return slices.Contains(c.Filters.Disabled, name)
}
