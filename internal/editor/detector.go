package editor

import (
	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/markup"
)

// Flags reports which markups are active at the primary selection. It is a
// read model for toolbars and is never stored.
type Flags struct {
	Heading       bool `json:"heading"`
	HeadingLevel  int  `json:"headingLevel"`
	Bold          bool `json:"bold"`
	Italic        bool `json:"italic"`
	Code          bool `json:"code"`
	Blockquote    bool `json:"blockquote"`
	UnorderedList bool `json:"unorderedList"`
}

// Detect computes the formatting flags for sel in doc.
//
// Line flags look at the line holding the primary head. Pair flags look at
// the primary range when it is non-empty, otherwise at the word touching the
// head (or the bare caret when there is none), and require the markers on
// both sides.
func Detect(doc *docmodel.Document, sel docmodel.Selection) Flags {
	var f Flags
	if doc == nil {
		return f
	}

	head := clampTo(sel.Head(), doc.Len())
	lineStart := doc.LineStart(head)
	if r, ok := doc.RuneAt(lineStart); ok && r == '#' {
		f.Heading = true
		f.HeadingLevel = headingLevel(doc, lineStart)
	}
	_, f.Blockquote = markup.AppliedPrefix(doc, lineStart, markup.Blockquote)
	_, f.UnorderedList = markup.AppliedPrefix(doc, lineStart, markup.UnorderedList)

	target := sel.PrimaryRange()
	if target.From < 0 || target.To > doc.Len() {
		target = docmodel.Caret(head)
	}
	if target.Empty() {
		if w, ok := markup.WordAt(doc, target.From); ok {
			target = w
		}
	}
	f.Bold = bounded(doc, target, markup.Bold)
	f.Italic = bounded(doc, target, markup.Italic) && !doubled(doc, target, markup.Italic)
	f.Code = bounded(doc, target, markup.Code)
	return f
}

// headingLevel returns the number of leading '#' when they form an ATX
// heading marker, 0 otherwise.
func headingLevel(doc *docmodel.Document, lineStart int) int {
	n := 0
	for {
		r, ok := doc.RuneAt(lineStart + n)
		if !ok || r != '#' {
			break
		}
		n++
	}
	if n > markup.MaxHeadingLevel {
		return 0
	}
	if r, ok := doc.RuneAt(lineStart + n); ok && r != ' ' && r != '\t' && r != '\n' {
		return 0
	}
	return n
}

func bounded(doc *docmodel.Document, r docmodel.Range, p markup.Pattern) bool {
	return doc.HasBefore(r.From, p.Prefix) && doc.HasAt(r.To, p.Suffix)
}

// doubled reports a doubled marker such as __word__, which is strong
// emphasis rather than italic.
func doubled(doc *docmodel.Document, r docmodel.Range, p markup.Pattern) bool {
	return doc.HasBefore(r.From, p.Prefix+p.Prefix) && doc.HasAt(r.To, p.Suffix+p.Suffix)
}

func clampTo(v, hi int) int {
	switch {
	case v < 0:
		return 0
	case v > hi:
		return hi
	}
	return v
}
