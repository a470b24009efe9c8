package markup

import (
	"unicode/utf8"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
)

// LinkPlaceholderURL is the destination written by the link operator for the
// user to overwrite.
const LinkPlaceholderURL = "http://"

// LinkOperator wraps a range as an inline link.
type LinkOperator struct{}

// Apply replaces r with `[text](http://)`. The resulting selection has two
// ranges: the placeholder URL (primary, to type the real URL over) and a
// caret right after the closing parenthesis.
func (LinkOperator) Apply(doc *docmodel.Document, r docmodel.Range) (Result, error) {
	text, err := doc.Slice(r.From, r.To)
	if err != nil {
		return Result{}, err
	}

	insert := "[" + text + "](" + LinkPlaceholderURL + ")"
	urlFrom := r.From + utf8.RuneCountInString("["+text+"](")
	urlTo := urlFrom + utf8.RuneCountInString(LinkPlaceholderURL)
	end := r.From + utf8.RuneCountInString(insert)

	return Result{
		Changes: []docmodel.Change{{From: r.From, To: r.To, Insert: insert}},
		Ranges:  []docmodel.Range{{From: urlFrom, To: urlTo}, docmodel.Caret(end)},
	}, nil
}
