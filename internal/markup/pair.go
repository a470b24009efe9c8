package markup

import (
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
)

// PairOperator toggles a symmetric pair markup (bold, italic, inline code)
// around a range.
type PairOperator struct {
	Pattern Pattern
}

// Pair returns the operator for a pair pattern.
func Pair(p Pattern) PairOperator { return PairOperator{Pattern: p} }

// Apply toggles the pattern around r.
//
// A caret is first widened to the word it touches. The prefix and suffix are
// decided independently: markers already flanking the target are removed,
// missing ones are inserted. The returned range keeps the originally selected
// text (or caret position) selected, markers excluded. A caret outside any
// word gets an empty marker pair with the caret between the markers.
func (o PairOperator) Apply(doc *docmodel.Document, r docmodel.Range) (Result, error) {
	if err := o.Pattern.Validate(KindPair); err != nil {
		return Result{}, err
	}
	if err := doc.CheckRange(r.From, r.To); err != nil {
		return Result{}, err
	}

	target := r
	if r.Empty() {
		if w, ok := WordAt(doc, r.From); ok {
			target = w
		}
	}

	prefix, suffix := o.Pattern.Prefix, o.Pattern.Suffix
	prefixLen := utf8.RuneCountInString(prefix)
	suffixLen := utf8.RuneCountInString(suffix)

	var res Result
	shift := prefixLen
	if doc.HasBefore(target.From, prefix) {
		res.Changes = append(res.Changes, docmodel.Deletion(target.From-prefixLen, target.From))
		shift = -prefixLen
	} else {
		res.Changes = append(res.Changes, docmodel.Insertion(target.From, prefix))
	}

	if doc.HasAt(target.To, suffix) {
		res.Changes = append(res.Changes, docmodel.Deletion(target.To, target.To+suffixLen))
	} else {
		res.Changes = append(res.Changes, docmodel.Insertion(target.To, suffix))
	}

	res.Ranges = []docmodel.Range{r.Shift(shift)}
	return res, nil
}

// WordAt returns the word touching pos: the maximal run of word characters
// containing the character before or at pos. Whitespace and pair delimiters
// are not word characters.
func WordAt(doc *docmodel.Document, pos int) (docmodel.Range, bool) {
	from, to := pos, pos
	for {
		r, ok := doc.RuneAt(from - 1)
		if !ok || !isWordRune(r) {
			break
		}
		from--
	}
	for {
		r, ok := doc.RuneAt(to)
		if !ok || !isWordRune(r) {
			break
		}
		to++
	}
	if from == to {
		return docmodel.Range{}, false
	}
	return docmodel.Range{From: from, To: to}, true
}

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !isDelimiter(r)
}
