package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/shibukawa/snaphaml"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool

	Out io.Writer // defaults to os.Stdout
}

func (c *Context) stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}

	return c.Out
}

// Logger returns the debug logger handed to the compiler. It is silent
// unless --verbose is set.
func (c *Context) Logger() *slog.Logger {
	if !c.Verbose {
		return nil
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// CLI represents the command-line interface
var CLI struct {
	Config   string      `help:"Configuration file path" default:"snaphaml.yaml"`
	Verbose  bool        `help:"Enable verbose output" short:"v"`
	Quiet    bool        `help:"Suppress output" short:"q"`
	Compile  CompileCmd  `cmd:"" help:"Compile templates into the intermediate tree"`
	Parse    ParseCmd    `cmd:"" help:"Print the document tree of a template"`
	Validate ValidateCmd `cmd:"" help:"Validate templates"`
	Filters  FiltersCmd  `cmd:"" help:"List available filters"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	formats := []string{}
	for _, f := range []snaphaml.Format{snaphaml.FormatHTML5, snaphaml.FormatXHTML, snaphaml.FormatHTML4} {
		formats = append(formats, f.Title())
	}

	_, err := fmt.Fprintf(ctx.stdout(), "SnapHaml v0.1.0\nFormats: %s\n", strings.Join(formats, ", "))

	return err
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("snaphaml"),
		kong.Description("Compile Haml templates into a line-preserving intermediate tree"),
	)

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
