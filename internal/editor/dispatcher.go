package editor

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/markup"
)

// BuildTransaction runs op once per range of sel, every call against the
// unmodified doc, and composes the results into one transaction.
//
// Changes stay in the coordinates of doc. A range whose change set is
// identical to one already collected (two carets in the same word or on the
// same line) contributes its selection but not its changes again. Each
// range's new selection is shifted by the net delta of the changes collected
// for earlier ranges. The first error aborts the whole transaction.
func BuildTransaction(doc *docmodel.Document, sel docmodel.Selection, op markup.Operator) (docmodel.Transaction, error) {
	var (
		changes []docmodel.Change
		ranges  []docmodel.Range
		primary int
		delta   int
		maxTo   int
		seen    = make(map[string]bool, len(sel.Ranges))
	)

	sel = sel.Normalize()
	for i, r := range sel.Ranges {
		res, err := op.Apply(doc, r)
		if err != nil {
			return docmodel.Transaction{}, err
		}

		setDelta := 0
		for _, c := range res.Changes {
			setDelta += c.Delta()
		}

		shift := delta
		key := changeSetKey(res.Changes)
		if seen[key] {
			shift = delta - setDelta
		} else {
			seen[key] = true
			for _, c := range res.Changes {
				if c.From < maxTo {
					return docmodel.Transaction{}, errors.ValidationError("selection ranges produce overlapping edits").
						WithContext("range", i).
						Build()
				}
			}
			for _, c := range res.Changes {
				maxTo = max(maxTo, c.To)
			}
			changes = append(changes, res.Changes...)
			delta += setDelta
		}

		if i == sel.Primary {
			primary = len(ranges)
		}
		for _, nr := range res.Ranges {
			ranges = append(ranges, nr.Shift(shift))
		}
	}

	return docmodel.Transaction{
		Changes:   changes,
		Selection: docmodel.Selection{Ranges: ranges, Primary: primary}.Normalize(),
	}, nil
}

func changeSetKey(changes []docmodel.Change) string {
	var b strings.Builder
	for _, c := range changes {
		b.WriteString(strconv.Itoa(c.From))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(c.To))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(c.Insert))
		b.WriteByte(';')
	}
	return b.String()
}
