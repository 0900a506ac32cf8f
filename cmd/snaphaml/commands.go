package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/shibukawa/snaphaml"
	"github.com/shibukawa/snaphaml/compiler"
	"github.com/shibukawa/snaphaml/explang"
	"github.com/shibukawa/snaphaml/filter"
	"github.com/shibukawa/snaphaml/intermediate"
	"github.com/shibukawa/snaphaml/parser"
)

// project is the loaded configuration shared by the commands of one run
type project struct {
	config    *snaphaml.Config
	opts      snaphaml.Options
	filters   *filter.Registry
	validator explang.Validator
}

func loadProject(ctx *Context) (*project, error) {
	config, err := snaphaml.LoadConfig(ctx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	validator, err := explang.NewCELValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create expression validator: %w", err)
	}

	opts := config.Options()
	opts.Logger = ctx.Logger()

	filters := filter.DefaultRegistry()
	for _, name := range config.Filters.Disabled {
		filters.Unregister(name)
	}

	return &project{
		config:    config,
		opts:      opts,
		filters:   filters,
		validator: validator,
	}, nil
}

// compile reads and compiles one template, returning its source as well
func (p *project) compile(file string) (*compiler.Result, string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file %s: %w", file, err)
	}

	src := string(data)

	result, err := compiler.Compile(src, p.opts, compiler.WithFilters(p.filters), compiler.WithValidator(p.validator))

	return result, src, err
}

// templates resolves command arguments, falling back to the configured input directory
func (p *project) templates(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{p.config.InputDir}
	}

	return collectTemplates(args, p.config.Templates.Extensions)
}

// describe turns a compile error into a diagnostic pointing at the source line
func describe(file, src string, err error) *intermediate.ExecutionError {
	line := snaphaml.ErrorLine(err)
	message := strings.TrimPrefix(err.Error(), fmt.Sprintf("line %d: ", line))

	return intermediate.NewExecutionError(message, -1, &intermediate.Instruction{Line: line}, file, src)
}

// CompileCmd represents the compile command
type CompileCmd struct {
	Files   []string `arg:"" help:"Template files or directories" optional:"" type:"path"`
	Output  string   `short:"o" help:"Output format: json, yaml or text (default from config)"`
	Flatten bool     `help:"Include the flattened instruction list"`
	Dir     string   `short:"d" help:"Write one file per template into this directory" type:"path"`
	Compact bool     `help:"Do not indent JSON output"`
}

func (c *CompileCmd) Run(ctx *Context) error {
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}

	format := c.Output
	if format == "" {
		format = p.config.Output.Format
	}

	switch format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("%w: '%s'", ErrUnsupportedOutput, format)
	}

	files, err := p.templates(c.Files)
	if err != nil {
		return err
	}

	flatten := c.Flatten || p.config.Output.Flatten

	for _, file := range files {
		result, src, err := p.compile(file)
		if err != nil {
			return describe(file, src, err)
		}

		dump := intermediate.NewFormat()
		dump.SetSource(file, src)
		dump.SetTree(result.Tree)

		if flatten {
			dump.SetInstructions(result.Instructions(p.opts.Format))
		}

		if c.Dir == "" {
			err = writeDump(ctx.stdout(), dump, format, !c.Compact)
		} else {
			err = c.writeDumpFile(ctx, file, dump, format)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (c *CompileCmd) writeDumpFile(ctx *Context, file string, dump *intermediate.IntermediateFormat, format string) error {
	path := filepath.Join(c.Dir, templateName(file)+"."+format)

	var b strings.Builder
	if err := writeDump(&b, dump, format, !c.Compact); err != nil {
		return err
	}

	if err := writeFile(path, b.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if ctx.Verbose {
		color.New(color.FgGreen).Fprintf(os.Stderr, "Compiled %s -> %s\n", file, path)
	}

	return nil
}

func writeDump(w io.Writer, dump *intermediate.IntermediateFormat, format string, pretty bool) error {
	switch format {
	case "yaml":
		return dump.WriteYAML(w)
	case "text":
		return dump.WriteText(w)
	default:
		return dump.WriteJSON(w, pretty)
	}
}

// ParseCmd represents the parse command
type ParseCmd struct {
	File string `arg:"" help:"Template file" type:"existingfile"`
}

func (c *ParseCmd) Run(ctx *Context) error {
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", c.File, err)
	}

	doc, err := parser.Parse(string(data), p.opts, p.filters)
	if err != nil {
		return describe(c.File, string(data), err)
	}

	_, err = io.WriteString(ctx.stdout(), doc.String())

	return err
}

// ValidateCmd represents the validate command
type ValidateCmd struct {
	Files  []string `arg:"" help:"Template files or directories" optional:"" type:"path"`
	Format string   `help:"Output format" default:"text" enum:"text,json"`
}

func (v *ValidateCmd) Run(ctx *Context) error {
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}

	files, err := p.templates(v.Files)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		color.New(color.FgBlue).Fprintf(os.Stderr, "Validating %d templates as %s\n", len(files), p.opts.Format.Title())
	}

	diagnostics := []*intermediate.ExecutionError{}

	for _, file := range files {
		_, src, err := p.compile(file)
		if err != nil {
			diagnostics = append(diagnostics, describe(file, src, err))
		}
	}

	if v.Format == "json" {
		encoder := json.NewEncoder(ctx.stdout())
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(diagnostics); err != nil {
			return err
		}
	} else {
		red := color.New(color.FgRed)
		for _, d := range diagnostics {
			red.Fprint(ctx.stdout(), d.DetailedError())
		}
	}

	if len(diagnostics) > 0 {
		return fmt.Errorf("%w: %d of %d templates", ErrValidationFailed, len(diagnostics), len(files))
	}

	if !ctx.Quiet && v.Format == "text" {
		color.New(color.FgGreen).Fprintf(ctx.stdout(), "%d templates are valid\n", len(files))
	}

	return nil
}

// FiltersCmd represents the filters command
type FiltersCmd struct{}

func (f *FiltersCmd) Run(ctx *Context) error {
	p, err := loadProject(ctx)
	if err != nil {
		return err
	}

	for _, name := range p.filters.Names() {
		fmt.Fprintln(ctx.stdout(), ":"+name)
	}

	return nil
}
