package docmodel

import (
	"time"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/frontmatter"
)

// ParsedDoc is a stored markdown file split into YAML frontmatter and body.
// Only the body is handed to the editor; frontmatter bytes are preserved.
type ParsedDoc struct {
	front frontmatter.Block
	body  string
}

// Parse splits raw file content into a ParsedDoc.
func Parse(content []byte) (*ParsedDoc, error) {
	block, body, err := frontmatter.Split(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to split frontmatter").Build()
	}
	return &ParsedDoc{
		front: frontmatter.Block{
			Raw:     append([]byte(nil), block.Raw...),
			Present: block.Present,
			Style:   block.Style,
		},
		body: string(body),
	}, nil
}

// Body returns the markdown body.
func (d *ParsedDoc) Body() string { return d.body }

// HadFrontmatter reports whether the file carried a frontmatter block.
func (d *ParsedDoc) HadFrontmatter() bool { return d.front.Present }

// Join re-assembles full file bytes around a (possibly edited) body.
//
// When refresh is set and the frontmatter carries a fingerprint, the
// fingerprint and lastmod are recomputed for the new body.
func (d *ParsedDoc) Join(body string, refresh bool, now time.Time) ([]byte, error) {
	block := d.front
	if refresh {
		next, _, err := block.RefreshFingerprint([]byte(body), now)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryValidation, "failed to refresh fingerprint").Build()
		}
		block = next
	}
	return block.Join([]byte(body)), nil
}
