package markup

import (
	"unicode/utf8"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
)

// LinePrefixOperator toggles a line-prefix markup (heading, blockquote,
// unordered list) on the line holding the start of a range.
type LinePrefixOperator struct {
	Pattern Pattern
}

// LinePrefix returns the operator for a line-prefix pattern.
func LinePrefix(p Pattern) LinePrefixOperator { return LinePrefixOperator{Pattern: p} }

// Apply toggles the prefix at the start of the line containing r.From.
//
// Only an exact match of the prefix (or one of its alternates) counts as
// applied: toggling "## " on a "# " line inserts rather than replaces.
func (o LinePrefixOperator) Apply(doc *docmodel.Document, r docmodel.Range) (Result, error) {
	if err := o.Pattern.Validate(KindLinePrefix); err != nil {
		return Result{}, err
	}
	if err := doc.CheckRange(r.From, r.To); err != nil {
		return Result{}, err
	}

	start := doc.LineStart(r.From)
	if applied, ok := AppliedPrefix(doc, start, o.Pattern); ok {
		n := utf8.RuneCountInString(applied)
		return Result{
			Changes: []docmodel.Change{docmodel.Deletion(start, start+n)},
			Ranges: []docmodel.Range{{
				From: max(start, r.From-n),
				To:   max(start, r.To-n),
			}},
		}, nil
	}

	n := utf8.RuneCountInString(o.Pattern.Prefix)
	return Result{
		Changes: []docmodel.Change{docmodel.Insertion(start, o.Pattern.Prefix)},
		Ranges:  []docmodel.Range{r.Shift(n)},
	}, nil
}

// AppliedPrefix returns the spelling of p found at lineStart, if any.
func AppliedPrefix(doc *docmodel.Document, lineStart int, p Pattern) (string, bool) {
	if doc.HasAt(lineStart, p.Prefix) {
		return p.Prefix, true
	}
	for _, alt := range p.Alternates {
		if doc.HasAt(lineStart, alt) {
			return alt, true
		}
	}
	return "", false
}
