package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanImages(t *testing.T) {
	src := "Intro ![cat.png](Uploading cat.png...) and\n" +
		"![dog](https://x/dog.png) `![code](skip.png)`\n" +
		"```\n![fenced](skip.png)\n```\n" +
		"    ![indented](skip.png)\n" +
		"tail ![](a.png)"

	refs := ScanImages(src)
	require.Len(t, refs, 3)

	assert.Equal(t, "cat.png", refs[0].Alt)
	assert.Equal(t, "Uploading cat.png...", refs[0].Destination)
	assert.Equal(t, "![cat.png](Uploading cat.png...)", src[refs[0].Start:refs[0].End])

	assert.Equal(t, "https://x/dog.png", refs[1].Destination)
	assert.Equal(t, "![dog](https://x/dog.png)", src[refs[1].Start:refs[1].End])

	assert.Equal(t, "", refs[2].Alt)
	assert.Equal(t, "![](a.png)", src[refs[2].Start:refs[2].End])
}

func TestScanImages_IgnoresIncompleteMarkup(t *testing.T) {
	assert.Empty(t, ScanImages("![alt] (x.png) ![alt](unterminated"))
	assert.Empty(t, ScanImages(""))
}
