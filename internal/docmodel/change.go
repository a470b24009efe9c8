package docmodel

import (
	"sort"
	"unicode/utf8"
)

// Change replaces [From, To) with Insert.
type Change struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Insert string `json:"insert"`
}

// Insertion returns a change inserting s at pos.
func Insertion(pos int, s string) Change { return Change{From: pos, To: pos, Insert: s} }

// Deletion returns a change removing [from, to).
func Deletion(from, to int) Change { return Change{From: from, To: to} }

// Delta is the change in document length caused by c.
func (c Change) Delta() int {
	return utf8.RuneCountInString(c.Insert) - (c.To - c.From)
}

// Transaction is an atomic change set plus the selection that results from it.
// All changes are in the coordinates of the document before the transaction.
type Transaction struct {
	Changes   []Change  `json:"changes"`
	Selection Selection `json:"selection"`
}

// Empty reports whether the transaction leaves the text untouched.
func (t Transaction) Empty() bool { return len(t.Changes) == 0 }

// MapPos maps pos through changes. assoc decides where a position lands when
// text is inserted exactly at it or when its surroundings are replaced:
// assoc > 0 sticks to the text after, otherwise to the text before.
func MapPos(pos int, changes []Change, assoc int) int {
	sorted := append([]Change(nil), changes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	delta := 0
	for _, c := range sorted {
		if c.From > pos {
			break
		}
		inserted := utf8.RuneCountInString(c.Insert)
		switch {
		case c.From == c.To && c.From == pos:
			if assoc > 0 {
				delta += inserted
			}
		case c.To <= pos:
			delta += inserted - (c.To - c.From)
		default:
			if assoc > 0 {
				return c.From + delta + inserted
			}
			return c.From + delta
		}
	}
	return pos + delta
}
