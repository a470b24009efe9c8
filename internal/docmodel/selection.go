package docmodel

import "sort"

// Range is an ordered pair of offsets with From <= To. An empty range is a caret.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Caret returns the empty range at pos.
func Caret(pos int) Range { return Range{From: pos, To: pos} }

// Span returns the range between a and b in either order.
func Span(a, b int) Range {
	if b < a {
		a, b = b, a
	}
	return Range{From: a, To: b}
}

func (r Range) Empty() bool { return r.From == r.To }
func (r Range) Len() int    { return r.To - r.From }

// Shift moves both ends by delta.
func (r Range) Shift(delta int) Range {
	return Range{From: r.From + delta, To: r.To + delta}
}

// Selection is a set of ranges used for multi-cursor editing. After Normalize
// the ranges are sorted by From and do not overlap.
type Selection struct {
	Ranges  []Range `json:"ranges"`
	Primary int     `json:"primary"`
}

// Single returns a selection holding only r.
func Single(r Range) Selection {
	return Selection{Ranges: []Range{r}}
}

// PrimaryRange returns the range the detector and image insertion act on.
func (s Selection) PrimaryRange() Range {
	if len(s.Ranges) == 0 {
		return Caret(0)
	}
	if s.Primary < 0 || s.Primary >= len(s.Ranges) {
		return s.Ranges[0]
	}
	return s.Ranges[s.Primary]
}

// Head returns the moving end of the primary range.
func (s Selection) Head() int {
	return s.PrimaryRange().To
}

// Equal reports whether both selections hold the same ranges and primary.
func (s Selection) Equal(o Selection) bool {
	if s.Primary != o.Primary || len(s.Ranges) != len(o.Ranges) {
		return false
	}
	for i := range s.Ranges {
		if s.Ranges[i] != o.Ranges[i] {
			return false
		}
	}
	return true
}

// Normalize sorts ranges by From and merges ranges that overlap, or that touch
// when one of them is a caret. The primary index follows its range.
func (s Selection) Normalize() Selection {
	if len(s.Ranges) == 0 {
		return Single(Caret(0))
	}

	type entry struct {
		r       Range
		primary bool
	}
	entries := make([]entry, len(s.Ranges))
	for i, r := range s.Ranges {
		entries[i] = entry{r: Span(r.From, r.To), primary: i == s.Primary}
	}
	if s.Primary < 0 || s.Primary >= len(s.Ranges) {
		entries[0].primary = true
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].r.From != entries[j].r.From {
			return entries[i].r.From < entries[j].r.From
		}
		return entries[i].r.To < entries[j].r.To
	})

	out := Selection{Ranges: make([]Range, 0, len(entries))}
	for _, e := range entries {
		n := len(out.Ranges)
		if n > 0 {
			last := &out.Ranges[n-1]
			if e.r.From < last.To || (e.r.From == last.To && (e.r.Empty() || last.Empty())) {
				if e.r.To > last.To {
					last.To = e.r.To
				}
				if e.primary {
					out.Primary = n - 1
				}
				continue
			}
		}
		if e.primary {
			out.Primary = n
		}
		out.Ranges = append(out.Ranges, e.r)
	}
	return out
}

// Clamp limits every range to [0, length].
func (s Selection) Clamp(length int) Selection {
	out := Selection{Ranges: make([]Range, len(s.Ranges)), Primary: s.Primary}
	for i, r := range s.Ranges {
		out.Ranges[i] = Range{From: clampInt(r.From, 0, length), To: clampInt(r.To, 0, length)}
	}
	return out.Normalize()
}

// Map carries the selection through a change set expressed in the
// coordinates it was taken in. Carets end up after text inserted at them.
func (s Selection) Map(changes []Change) Selection {
	out := Selection{Ranges: make([]Range, len(s.Ranges)), Primary: s.Primary}
	for i, r := range s.Ranges {
		if r.Empty() {
			p := MapPos(r.From, changes, 1)
			out.Ranges[i] = Caret(p)
			continue
		}
		from := MapPos(r.From, changes, 1)
		to := MapPos(r.To, changes, -1)
		if to < from {
			to = from
		}
		out.Ranges[i] = Range{From: from, To: to}
	}
	return out.Normalize()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
