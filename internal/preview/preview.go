// Package preview renders a document body to HTML for the editor's preview
// pane. Relative image sources are rewritten to absolute raw-content URLs so
// images resolve while the page is served from the editing API.
package preview

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/markdown"
)

// Options controls rendering.
type Options struct {
	// BaseURL is the raw-content URL of the repository root, for example
	// https://raw.githubusercontent.com/owner/repo/main. Empty disables rewriting.
	BaseURL string
	// DocumentPath is the repository path of the rendered file; relative image
	// sources resolve against its directory.
	DocumentPath string
}

// Render converts body (frontmatter already removed) to HTML.
func Render(body []byte, opts Options) ([]byte, error) {
	out, err := markdown.RenderHTML(body, markdown.Options{GFM: true})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to render markdown").Build()
	}
	if opts.BaseURL == "" {
		return out, nil
	}
	return RewriteImageSources(out, opts.BaseURL, opts.DocumentPath)
}

// RewriteImageSources parses an HTML fragment and makes every relative
// <img src> absolute against baseURL.
func RewriteImageSources(fragment []byte, baseURL, documentPath string) ([]byte, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil || !base.IsAbs() {
		return nil, errors.ValidationError("invalid preview base URL").
			WithCause(err).
			WithContext("base_url", baseURL).
			Build()
	}

	bodyCtx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), bodyCtx)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse rendered HTML").Build()
	}

	dir := path.Dir(strings.TrimPrefix(documentPath, "/"))
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			for i, attr := range n.Attr {
				if attr.Key == "src" {
					n.Attr[i].Val = resolveSource(base, dir, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		walk(n)
		if err := html.Render(&buf, n); err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to render preview HTML").Build()
		}
	}
	return buf.Bytes(), nil
}

// resolveSource leaves absolute URLs, protocol-relative URLs and data URIs
// alone. Root-relative paths resolve against the repository root, anything
// else against the document's directory.
func resolveSource(base *url.URL, dir, src string) string {
	if src == "" || strings.HasPrefix(src, "//") {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil || ref.IsAbs() {
		return src
	}

	var p string
	if strings.HasPrefix(ref.Path, "/") {
		p = path.Clean(ref.Path)
	} else {
		p = path.Join(dir, ref.Path)
	}
	p = strings.TrimPrefix(p, "/")
	// Paths escaping the repository root are clamped to it.
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	if p == ".." || p == "." {
		p = ""
	}

	resolved := base.ResolveReference(&url.URL{Path: p, RawQuery: ref.RawQuery, Fragment: ref.Fragment})
	return resolved.String()
}
