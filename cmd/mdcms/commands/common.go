// Package commands implements the mdcms command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdcms/internal/config"
)

// Global is shared state handed to every command.
type Global struct {
	Out   io.Writer
	Level *slog.LevelVar
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mdcms.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" help:"Run the editing API server"`
	Apply   ApplyCmd   `cmd:"" help:"Apply a formatting command to a markdown file"`
	Flags   FlagsCmd   `cmd:"" help:"Report formatting flags at a position in a markdown file"`
	Preview PreviewCmd `cmd:"" help:"Render a markdown file to HTML"`

	level *slog.LevelVar
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	lvl := c.Level()
	if c.Verbose {
		lvl.Set(slog.LevelDebug)
	}
	slog.SetDefault(newLogger(os.Stderr, config.LogFormatText, lvl))
	return nil
}

// Level is the process log level, adjustable at runtime.
func (c *CLI) Level() *slog.LevelVar {
	if c.level == nil {
		c.level = new(slog.LevelVar)
	}
	return c.level
}

func newLogger(w io.Writer, format config.LogFormat, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
