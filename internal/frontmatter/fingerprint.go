package frontmatter

import (
	"strings"
	"time"

	"github.com/inful/mdfp"
)

// Keys excluded from the fingerprint hash; they change as a consequence of
// the fingerprint, or are identity rather than content.
var fingerprintExcluded = map[string]struct{}{
	mdfp.FingerprintField: {},
	"lastmod":             {},
	"uid":                 {},
	"aliases":             {},
}

// ComputeFingerprint returns the canonical content fingerprint of fields+body.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, skip := fingerprintExcluded[k]; skip {
			continue
		}
		hashed[k] = v
	}

	fm := ""
	if len(hashed) > 0 {
		serialized, err := SerializeYAML(hashed, Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// RefreshFingerprint recomputes the fingerprint of a document whose
// frontmatter already carries one. When it changes, lastmod is set to now
// (UTC, YYYY-MM-DD). Blocks without a fingerprint are returned unchanged.
func (b Block) RefreshFingerprint(body []byte, now time.Time) (Block, bool, error) {
	if !b.Present {
		return b, false, nil
	}
	fields, err := ParseYAML(b.Raw)
	if err != nil {
		return b, false, err
	}
	old, ok := fields[mdfp.FingerprintField].(string)
	if !ok {
		return b, false, nil
	}

	fp, err := ComputeFingerprint(fields, body)
	if err != nil {
		return b, false, err
	}
	if strings.TrimSpace(old) == fp {
		return b, false, nil
	}

	fields[mdfp.FingerprintField] = fp
	fields["lastmod"] = now.UTC().Format("2006-01-02")
	raw, err := SerializeYAML(fields, b.Style)
	if err != nil {
		return b, false, err
	}
	return Block{Raw: raw, Present: true, Style: b.Style}, true, nil
}

// Fingerprint returns the fingerprint stored in the block, if any.
func (b Block) Fingerprint() string {
	if !b.Present {
		return ""
	}
	fields, err := ParseYAML(b.Raw)
	if err != nil {
		return ""
	}
	fp, _ := fields[mdfp.FingerprintField].(string)
	return strings.TrimSpace(fp)
}
