// Package markup implements the toggleable markdown operators. Each operator
// is a pure function of a document and one selection range: it decides
// whether its markup is already applied and returns the changes that add or
// remove it.
package markup

import (
	"strings"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// MaxHeadingLevel is the deepest markdown heading.
const MaxHeadingLevel = 6

// Kind tells pair patterns from line-prefix patterns.
type Kind int

const (
	KindPair Kind = iota
	KindLinePrefix
)

// Pattern describes one markup. Pair patterns wrap text in Prefix/Suffix;
// line-prefix patterns put Prefix at the start of a line and leave Suffix
// empty. Alternates are other spellings recognized as "already applied" but
// never inserted.
type Pattern struct {
	Name       string
	Kind       Kind
	Prefix     string
	Suffix     string
	Alternates []string
}

var (
	Bold          = Pattern{Name: "bold", Kind: KindPair, Prefix: "**", Suffix: "**"}
	Italic        = Pattern{Name: "italic", Kind: KindPair, Prefix: "_", Suffix: "_"}
	Code          = Pattern{Name: "code", Kind: KindPair, Prefix: "`", Suffix: "`"}
	Blockquote    = Pattern{Name: "blockquote", Kind: KindLinePrefix, Prefix: "> "}
	UnorderedList = Pattern{Name: "unorderedList", Kind: KindLinePrefix, Prefix: "- ", Alternates: []string{"* "}}
)

// Heading returns the line-prefix pattern for a heading of the given level.
func Heading(level int) (Pattern, error) {
	if level < 1 || level > MaxHeadingLevel {
		return Pattern{}, errors.ValidationError("heading level out of range").
			WithContext("level", level).
			Build()
	}
	return Pattern{
		Name:   "heading",
		Kind:   KindLinePrefix,
		Prefix: strings.Repeat("#", level) + " ",
	}, nil
}

// Validate rejects patterns that cannot be toggled.
func (p Pattern) Validate(want Kind) error {
	switch {
	case p.Kind != want:
		return errors.ValidationError("pattern kind does not match operator").WithContext("pattern", p.Name).Build()
	case p.Prefix == "":
		return errors.ValidationError("pattern has an empty prefix").WithContext("pattern", p.Name).Build()
	case p.Kind == KindPair && p.Suffix == "":
		return errors.ValidationError("pair pattern has an empty suffix").WithContext("pattern", p.Name).Build()
	}
	return nil
}

// delimiters are the characters pair markups are built from. They never
// count as part of a word, so a caret inside **word** expands to word.
const delimiters = "*_`"

func isDelimiter(r rune) bool { return strings.ContainsRune(delimiters, r) }
