// Package docmodel holds the editable document: an immutable-per-version
// text value, selections over it, and the change sets that produce the next
// version.
//
// All offsets are character (Unicode code point) offsets, not byte offsets.
package docmodel

import (
	"unicode/utf8"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/markdown"
)

// Document is one version of the edited text. It is never mutated; Apply
// returns the next version.
type Document struct {
	text    string
	runes   []rune
	version uint64
}

// New creates version 0 of a document. Invalid UTF-8 is replaced with U+FFFD
// so text and character offsets always agree.
func New(text string) *Document {
	runes := []rune(text)
	return &Document{text: string(runes), runes: runes}
}

func (d *Document) Text() string    { return d.text }
func (d *Document) Len() int        { return len(d.runes) }
func (d *Document) Version() uint64 { return d.version }

// CheckRange reports a range error unless 0 <= from <= to <= Len().
func (d *Document) CheckRange(from, to int) error {
	if from < 0 || to < from || to > len(d.runes) {
		return errors.RangeError("range outside document").
			WithContext("from", from).
			WithContext("to", to).
			WithContext("length", len(d.runes)).
			Build()
	}
	return nil
}

// Slice returns the text in [from, to).
func (d *Document) Slice(from, to int) (string, error) {
	if err := d.CheckRange(from, to); err != nil {
		return "", err
	}
	return string(d.runes[from:to]), nil
}

// HasAt reports whether s occurs at offset pos. Out-of-range positions are
// simply false.
func (d *Document) HasAt(pos int, s string) bool {
	if pos < 0 {
		return false
	}
	i := pos
	for _, r := range s {
		if i >= len(d.runes) || d.runes[i] != r {
			return false
		}
		i++
	}
	return true
}

// HasBefore reports whether s ends exactly at offset pos.
func (d *Document) HasBefore(pos int, s string) bool {
	return d.HasAt(pos-utf8.RuneCountInString(s), s)
}

// RuneAt returns the character at pos.
func (d *Document) RuneAt(pos int) (rune, bool) {
	if pos < 0 || pos >= len(d.runes) {
		return 0, false
	}
	return d.runes[pos], true
}

// LineStart returns the offset of the first character of the line holding pos.
func (d *Document) LineStart(pos int) int {
	pos = d.clamp(pos)
	for pos > 0 && d.runes[pos-1] != '\n' {
		pos--
	}
	return pos
}

// LineEnd returns the offset of the newline ending the line holding pos, or
// Len() on the last line.
func (d *Document) LineEnd(pos int) int {
	pos = d.clamp(pos)
	for pos < len(d.runes) && d.runes[pos] != '\n' {
		pos++
	}
	return pos
}

// Line returns the text of the line holding pos, without its newline.
func (d *Document) Line(pos int) string {
	return string(d.runes[d.LineStart(pos):d.LineEnd(pos)])
}

// Index returns the character offset of the first occurrence of s, or -1.
func (d *Document) Index(s string) int {
	if s == "" {
		return 0
	}
	n := utf8.RuneCountInString(s)
	for i := 0; i+n <= len(d.runes); i++ {
		if d.HasAt(i, s) {
			return i
		}
	}
	return -1
}

// Apply validates changes against this version and returns the next one.
//
// Changes are expressed in this document's coordinates and are applied as a
// single combined rewrite. On any invalid or overlapping change the receiver is
// returned untouched together with the error; an empty change set returns the
// receiver itself.
func (d *Document) Apply(changes []Change) (*Document, error) {
	if len(changes) == 0 {
		return d, nil
	}

	edits := make([]markdown.Edit, 0, len(changes))
	for i, c := range changes {
		if err := d.CheckRange(c.From, c.To); err != nil {
			classified, _ := errors.AsClassified(err)
			return d, classified.WithContext("change", i)
		}
		edits = append(edits, markdown.Edit{
			Start:       d.byteOffset(c.From),
			End:         d.byteOffset(c.To),
			Replacement: []byte(c.Insert),
		})
	}

	out, err := markdown.ApplyEdits([]byte(d.text), edits)
	if err != nil {
		return d, errors.WrapError(err, errors.CategoryRange, "invalid change set").
			WithContext("changes", len(changes)).
			Build()
	}

	next := New(string(out))
	next.version = d.version + 1
	return next, nil
}

func (d *Document) byteOffset(pos int) int {
	n := 0
	for _, r := range d.runes[:pos] {
		n += utf8.RuneLen(r)
	}
	return n
}

func (d *Document) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(d.runes) {
		return len(d.runes)
	}
	return pos
}
