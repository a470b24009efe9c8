package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	File    string `arg:"" help:"Markdown file to render" type:"existingfile"`
	BaseURL string `name:"base-url" help:"Raw-content URL of the repository root for image sources"`
	Path    string `help:"Repository path of the file, used to resolve relative images (defaults to the file argument)"`
}

func (p *PreviewCmd) Run(g *Global, _ *CLI) error {
	raw, err := os.ReadFile(p.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.File, err)
	}
	parsed, err := docmodel.Parse(raw)
	if err != nil {
		return err
	}
	docPath := p.Path
	if docPath == "" {
		docPath = p.File
	}
	html, err := preview.Render([]byte(parsed.Body()), preview.Options{BaseURL: p.BaseURL, DocumentPath: docPath})
	if err != nil {
		return err
	}
	_, err = g.out().Write(html)
	return err
}
