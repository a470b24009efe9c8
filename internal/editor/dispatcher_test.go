package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/markup"
)

func TestBuildTransaction_ChangesUseOriginalCoordinates(t *testing.T) {
	doc := docmodel.New("aa bb cc")
	sel := docmodel.Selection{Ranges: []docmodel.Range{docmodel.Span(0, 2), docmodel.Span(3, 5), docmodel.Span(6, 8)}}

	tx, err := BuildTransaction(doc, sel, markup.Pair(markup.Code))
	require.NoError(t, err)
	assert.Equal(t, []docmodel.Change{
		docmodel.Insertion(0, "`"), docmodel.Insertion(2, "`"),
		docmodel.Insertion(3, "`"), docmodel.Insertion(5, "`"),
		docmodel.Insertion(6, "`"), docmodel.Insertion(8, "`"),
	}, tx.Changes)

	next, err := doc.Apply(tx.Changes)
	require.NoError(t, err)
	assert.Equal(t, "`aa` `bb` `cc`", next.Text())
	for _, r := range tx.Selection.Ranges {
		s, err := next.Slice(r.From, r.To)
		require.NoError(t, err)
		assert.Len(t, s, 2)
	}
}

func TestBuildTransaction_TouchingRanges(t *testing.T) {
	doc := docmodel.New("helloworld")
	sel := docmodel.Selection{Ranges: []docmodel.Range{docmodel.Span(0, 5), docmodel.Span(5, 10)}}

	tx, err := BuildTransaction(doc, sel, markup.Pair(markup.Bold))
	require.NoError(t, err)
	next, err := doc.Apply(tx.Changes)
	require.NoError(t, err)
	assert.Equal(t, "**hello****world**", next.Text())
	assert.Equal(t, []docmodel.Range{docmodel.Span(2, 7), docmodel.Span(11, 16)}, tx.Selection.Ranges)
}

func TestBuildTransaction_IsAtomic(t *testing.T) {
	doc := docmodel.New("hello world")
	sel := docmodel.Selection{Ranges: []docmodel.Range{docmodel.Span(0, 5), docmodel.Span(6, 40)}}

	_, err := BuildTransaction(doc, sel, markup.Pair(markup.Bold))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRange))
	assert.Equal(t, "hello world", doc.Text())
}

func TestBuildTransaction_RejectsInterleavedEdits(t *testing.T) {
	doc := docmodel.New("hello")
	sel := docmodel.Selection{Ranges: []docmodel.Range{docmodel.Span(0, 2), docmodel.Caret(4)}}

	_, err := BuildTransaction(doc, sel, markup.Pair(markup.Bold))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestBuildTransaction_OperatorErrorAborts(t *testing.T) {
	calls := 0
	op := markup.OperatorFunc(func(doc *docmodel.Document, r docmodel.Range) (markup.Result, error) {
		calls++
		if calls == 2 {
			return markup.Result{}, errors.ValidationError("malformed pattern").Build()
		}
		return markup.Result{Changes: []docmodel.Change{docmodel.Insertion(r.From, "x")}, Ranges: []docmodel.Range{r}}, nil
	})

	tx, err := BuildTransaction(docmodel.New("a b c"), docmodel.Selection{Ranges: []docmodel.Range{
		docmodel.Caret(0), docmodel.Caret(2), docmodel.Caret(4),
	}}, op)
	require.Error(t, err)
	assert.True(t, tx.Empty())
	assert.Equal(t, 2, calls)
}

func TestBuildTransaction_PrimaryFollowsRange(t *testing.T) {
	doc := docmodel.New("one two")
	sel := docmodel.Selection{Ranges: []docmodel.Range{docmodel.Span(0, 3), docmodel.Span(4, 7)}, Primary: 1}

	tx, err := BuildTransaction(doc, sel, markup.LinkOperator{})
	require.NoError(t, err)
	next, err := doc.Apply(tx.Changes)
	require.NoError(t, err)
	assert.Equal(t, "[one](http://) [two](http://)", next.Text())

	primary := tx.Selection.PrimaryRange()
	url, err := next.Slice(primary.From, primary.To)
	require.NoError(t, err)
	assert.Equal(t, "http://", url)
	assert.Equal(t, 21, primary.From)
	assert.Len(t, tx.Selection.Ranges, 4)
}
