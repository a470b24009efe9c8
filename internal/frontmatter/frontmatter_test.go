package frontmatter

import (
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		present bool
		raw     string
		body    string
	}{
		{"no frontmatter", "# Title\n", false, "", "# Title\n"},
		{"yaml", "---\ntitle: x\n---\n# Body\n", true, "title: x\n", "# Body\n"},
		{"crlf", "---\r\ntitle: x\r\n---\r\nBody\r\n", true, "title: x\r\n", "Body\r\n"},
		{"empty block", "---\n---\nBody\n", true, "", "Body\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			block, body, err := Split([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.present, block.Present)
			assert.Equal(t, tc.raw, string(block.Raw))
			assert.Equal(t, tc.body, string(body))
			assert.Equal(t, tc.in, string(block.Join(body)), "join must round-trip")
		})
	}
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, err := Split([]byte("---\ntitle: x\n# Body\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: Hello\ntags: [a, b]\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields["title"])

	fields, err = ParseYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, fields)

	_, err = ParseYAML([]byte("title: [unclosed\n"))
	require.Error(t, err)
}

func TestSerializeYAML_SortedAndNewlineStyle(t *testing.T) {
	out, err := SerializeYAML(map[string]any{"b": 1, "a": "x"}, Style{Newline: "\r\n"})
	require.NoError(t, err)
	assert.Equal(t, "a: x\r\nb: 1\r\n", string(out))
}

func TestRefreshFingerprint(t *testing.T) {
	body := []byte("# Body\n")
	block, _, err := Split([]byte("---\ntitle: x\nfingerprint: stale\n---\n"))
	require.NoError(t, err)

	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	next, changed, err := block.RefreshFingerprint(body, now)
	require.NoError(t, err)
	require.True(t, changed)

	fields, err := ParseYAML(next.Raw)
	require.NoError(t, err)
	want, err := ComputeFingerprint(map[string]any{"title": "x"}, body)
	require.NoError(t, err)
	assert.Equal(t, want, fields[mdfp.FingerprintField])
	assert.Equal(t, "2026-03-04", fields["lastmod"])

	again, changed, err := next.RefreshFingerprint(body, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, next.Raw, again.Raw)
}

func TestRefreshFingerprint_OptIn(t *testing.T) {
	block, _, err := Split([]byte("---\ntitle: x\n---\n"))
	require.NoError(t, err)

	next, changed, err := block.RefreshFingerprint([]byte("body"), time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, block.Raw, next.Raw)
}
