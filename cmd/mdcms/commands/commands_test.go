package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/editor"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

const sample = "---\ntitle: Sample\n---\nhello world\n"

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = ctx.Run(&Global{Out: &out, Level: cli.Level()}, &cli)
	return out.String(), err
}

func TestApplyPrintsResult(t *testing.T) {
	path := writeSample(t, sample)

	out, err := run(t, "apply", path, "-x", "bold", "-s", "0:5")
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Sample\n---\n**hello** world\n", out)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sample, string(raw))
}

func TestApplyWritesBack(t *testing.T) {
	path := writeSample(t, sample)

	out, err := run(t, "apply", path, "--command", "heading", "--level", "2", "--select", "3", "--write")
	require.NoError(t, err)
	assert.Empty(t, out)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Sample\n---\n## hello world\n", string(raw))
}

func TestApplyMultipleRanges(t *testing.T) {
	path := writeSample(t, "one\ntwo\n")

	out, err := run(t, "apply", path, "-x", "unorderedList", "-s", "0", "-s", "4")
	require.NoError(t, err)
	assert.Equal(t, "- one\n- two\n", out)
}

func TestApplyRejectsBadInput(t *testing.T) {
	path := writeSample(t, sample)

	_, err := run(t, "apply", path, "-x", "strike")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = run(t, "apply", path, "-x", "image")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = run(t, "apply", path, "-x", "bold", "-s", "0:500")
	require.Error(t, err)

	_, err = run(t, "apply", path, "-x", "bold", "-s", "a:b")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestFlagsReportsFormatting(t *testing.T) {
	path := writeSample(t, "## **bold** text\n")

	out, err := run(t, "flags", path, "--at", "6")
	require.NoError(t, err)

	var flags editor.Flags
	require.NoError(t, json.Unmarshal([]byte(out), &flags))
	assert.True(t, flags.Heading)
	assert.Equal(t, 2, flags.HeadingLevel)
	assert.True(t, flags.Bold)
	assert.False(t, flags.Italic)
}

func TestPreviewRendersBody(t *testing.T) {
	path := writeSample(t, "---\ntitle: x\n---\n# Title\n\n![a](img/a.png)\n")

	out, err := run(t, "preview", path, "--base-url", "https://raw.example.com/r/main", "--path", "docs/page.md")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, `src="https://raw.example.com/r/main/docs/img/a.png"`)
	assert.NotContains(t, out, "title: x")
}

func TestParseRanges(t *testing.T) {
	tests := []struct {
		value    string
		want    docmodel.Range
		wantErr bool
	}{
		{value: "4", want: docmodel.Range{From: 4, To: 4}},
		{value: "2:7", want: docmodel.Range{From: 2, To: 7}},
		{value: "7:2", want: docmodel.Range{From: 2, To: 7}},
		{value: " 3 ", want: docmodel.Range{From: 3, To: 3}},
		{value: "x", wantErr: true},
		{value: "1:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseRanges([]string{tt.value})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []docmodel.Range{tt.want}, got)
		})
	}
}
