package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Options controls how Markdown is rendered.
type Options struct {
	// GFM enables GitHub Flavored Markdown (tables, strikethrough, autolinks, task lists).
	GFM bool
}

func newMarkdown(opts Options) goldmark.Markdown {
	if opts.GFM {
		return goldmark.New(goldmark.WithExtensions(extension.GFM))
	}
	return goldmark.New()
}

// RenderHTML converts a Markdown body (frontmatter already removed) to HTML.
func RenderHTML(body []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := newMarkdown(opts).Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImageDestinations returns the destinations of all CommonMark-valid images,
// including reference-style images resolved through link definitions.
func ImageDestinations(body []byte, opts Options) []string {
	ctx := parser.NewContext()
	root := newMarkdown(opts).Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	var out []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if img, ok := n.(*gmast.Image); ok {
			out = append(out, string(img.Destination))
		}
		return gmast.WalkContinue, nil
	})
	sort.Strings(out)
	return out
}
