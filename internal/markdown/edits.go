package markdown

import (
	"errors"
	"fmt"
	"sort"
)

// Edit represents a targeted byte-range replacement.
//
// Start and End are byte offsets into the original source, with End exclusive.
// Replacement replaces source[Start:End].
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies a set of byte-range edits to source and returns the updated content.
//
// Edits must be non-overlapping and refer to offsets in the original source.
// Several insertions (Start == End) at the same offset are allowed; they land
// in the order they were listed. The result is built in one pass, so no edit
// ever observes offsets shifted by another.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return append([]byte(nil), source...), nil
	}

	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := edits[order[a]], edits[order[b]]
		if ea.Start != eb.Start {
			return ea.Start < eb.Start
		}
		// Insertions sort before a replacement that starts at the same offset.
		return ea.End-ea.Start == 0 && eb.End-eb.Start != 0
	})

	for i, idx := range order {
		e := edits[idx]
		if e.Start < 0 || e.End < 0 {
			return nil, fmt.Errorf("invalid edit[%d]: negative range", idx)
		}
		if e.End < e.Start {
			return nil, fmt.Errorf("invalid edit[%d]: end before start", idx)
		}
		if e.End > len(source) {
			return nil, fmt.Errorf("invalid edit[%d]: range out of bounds", idx)
		}
		if i > 0 {
			prev := edits[order[i-1]]
			if prev.End > e.Start {
				return nil, errors.New("invalid edits: overlapping ranges")
			}
		}
	}

	size := len(source)
	for _, e := range edits {
		size += len(e.Replacement) - (e.End - e.Start)
	}

	out := make([]byte, 0, size)
	cursor := 0
	for _, idx := range order {
		e := edits[idx]
		out = append(out, source[cursor:e.Start]...)
		out = append(out, e.Replacement...)
		cursor = e.End
	}
	out = append(out, source[cursor:]...)
	return out, nil
}
