// Package frontmatter separates YAML frontmatter from a markdown body so the
// editor only ever sees (and rewrites) the body.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Style captures the newline shape needed for stable rewriting.
type Style struct {
	Newline string
}

// Block is the raw frontmatter of a document, without `---` delimiters.
type Block struct {
	Raw     []byte
	Present bool
	Style   Style
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// Documents that do not start with a delimiter line return a Block with
// Present false and the full input as body.
func Split(content []byte) (Block, []byte, error) {
	style := detectStyle(content)
	nl := style.Newline
	delim := []byte("---" + nl)

	if !bytes.HasPrefix(content, delim) {
		return Block{Style: style}, content, nil
	}

	start := len(delim)
	if bytes.HasPrefix(content[start:], delim) {
		return Block{Raw: []byte{}, Present: true, Style: style}, content[start+len(delim):], nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return Block{}, nil, ErrMissingClosingDelimiter
	}

	raw := content[start : start+idx+len(nl)]
	body := content[start+idx+len(closeSeq):]
	return Block{Raw: raw, Present: true, Style: style}, body, nil
}

// Join reassembles a document from the block and body. A block that was not
// present returns body unchanged.
func (b Block) Join(body []byte) []byte {
	if !b.Present {
		return append([]byte(nil), body...)
	}
	nl := b.Style.Newline
	if nl == "" {
		nl = "\n"
	}

	out := make([]byte, 0, 2*(len(nl)+3)+len(b.Raw)+len(body))
	out = append(out, "---"+nl...)
	out = append(out, b.Raw...)
	out = append(out, "---"+nl...)
	out = append(out, body...)
	return out
}

// ParseYAML parses raw YAML frontmatter into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// SerializeYAML encodes fields with sorted keys and the newline style
// provided. An empty map yields an empty slice.
func SerializeYAML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fields); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if style.Newline != "" && style.Newline != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(style.Newline))
	}
	return out, nil
}

func detectStyle(content []byte) Style {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return Style{Newline: "\r\n"}
	}
	return Style{Newline: "\n"}
}
