package markup

import "git.home.luguber.info/inful/mdcms/internal/docmodel"

// Result is what an operator computes for one range.
//
// Changes are in the coordinates of the document the operator was given.
// Ranges are the selection that should result, in the coordinates of the
// document after applying only these changes.
type Result struct {
	Changes []docmodel.Change
	Ranges  []docmodel.Range
}

// Operator computes the toggle of one markup for one range.
type Operator interface {
	Apply(doc *docmodel.Document, r docmodel.Range) (Result, error)
}

// OperatorFunc adapts a function to Operator.
type OperatorFunc func(doc *docmodel.Document, r docmodel.Range) (Result, error)

func (f OperatorFunc) Apply(doc *docmodel.Document, r docmodel.Range) (Result, error) {
	return f(doc, r)
}
