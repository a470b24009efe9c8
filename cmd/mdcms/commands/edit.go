package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/editor"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// ApplyCmd implements the 'apply' command. Offsets are character offsets
// into the body, after any frontmatter.
type ApplyCmd struct {
	File    string   `arg:"" help:"Markdown file to edit" type:"existingfile"`
	Command string   `short:"x" required:"" help:"Command: bold, italic, code, heading, blockquote, unorderedList, link"`
	Level   int      `short:"l" default:"1" help:"Heading level for the heading command"`
	Select  []string `short:"s" help:"Selection range FROM:TO or caret POS; repeat for multiple ranges" default:"0"`
	Write   bool     `short:"w" help:"Write the result back to the file instead of printing it"`
}

func (a *ApplyCmd) Run(g *Global, _ *CLI) error {
	ranges, err := parseRanges(a.Select)
	if err != nil {
		return err
	}
	cmd, err := editor.ParseCommand(a.Command, a.Level)
	if err != nil {
		return err
	}
	if cmd.Name == editor.CmdImage {
		return errors.ValidationError("image insertion needs the editing server").Build()
	}

	info, err := os.Stat(a.File)
	if err != nil {
		return fmt.Errorf("stat %s: %w", a.File, err)
	}
	parsed, session, err := openSession(a.File)
	if err != nil {
		return err
	}
	if err := session.Select(ranges...); err != nil {
		return err
	}
	if err := session.Dispatch(cmd); err != nil {
		return err
	}

	out, err := parsed.Join(session.CurrentText(), false, time.Now())
	if err != nil {
		return err
	}
	if a.Write {
		if err := os.WriteFile(a.File, out, info.Mode().Perm()); err != nil {
			return fmt.Errorf("write %s: %w", a.File, err)
		}
		return nil
	}
	_, err = g.out().Write(out)
	return err
}

// FlagsCmd implements the 'flags' command.
type FlagsCmd struct {
	File string `arg:"" help:"Markdown file to inspect" type:"existingfile"`
	At   string `short:"a" help:"Position POS or range FROM:TO in the body" default:"0"`
}

func (f *FlagsCmd) Run(g *Global, _ *CLI) error {
	ranges, err := parseRanges([]string{f.At})
	if err != nil {
		return err
	}
	_, session, err := openSession(f.File)
	if err != nil {
		return err
	}
	if err := session.Select(ranges...); err != nil {
		return err
	}
	enc := json.NewEncoder(g.out())
	enc.SetIndent("", "  ")
	return enc.Encode(session.FormattingFlags())
}

func openSession(path string) (*docmodel.ParsedDoc, *editor.Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	parsed, err := docmodel.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return parsed, editor.New(parsed.Body(), nil), nil
}

// parseRanges accepts "POS" and "FROM:TO" values.
func parseRanges(values []string) ([]docmodel.Range, error) {
	out := make([]docmodel.Range, 0, len(values))
	for _, value := range values {
		from, to, isSpan := strings.Cut(strings.TrimSpace(value), ":")
		a, err := strconv.Atoi(from)
		if err != nil {
			return nil, invalidRange(value)
		}
		if !isSpan {
			out = append(out, docmodel.Caret(a))
			continue
		}
		b, err := strconv.Atoi(to)
		if err != nil {
			return nil, invalidRange(value)
		}
		out = append(out, docmodel.Span(a, b))
	}
	return out, nil
}

func invalidRange(value string) error {
	return errors.ValidationError("invalid selection; use POS or FROM:TO").
		WithContext("selection", value).
		Build()
}
