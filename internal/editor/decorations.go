package editor

import (
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/mdcms/internal/markdown"
)

// DecorationState tells a renderer how to present an embedded image.
type DecorationState string

const (
	StateReady     DecorationState = "ready"
	StateUploading DecorationState = "uploading"
	StateFailed    DecorationState = "failed"
)

// Decoration is an image span in the document, in character offsets. It
// carries no rendering details; UI layers draw it however they like.
type Decoration struct {
	From        int             `json:"from"`
	To          int             `json:"to"`
	Alt         string          `json:"alt"`
	Destination string          `json:"destination"`
	State       DecorationState `json:"state"`
}

// Decorate maps text to its image decorations. Images inside code are not
// decorated.
func Decorate(text string) []Decoration {
	refs := markdown.ScanImages(text)
	if len(refs) == 0 {
		return nil
	}

	out := make([]Decoration, 0, len(refs))
	runePos, bytePos := 0, 0
	toRunes := func(b int) int {
		runePos += utf8.RuneCountInString(text[bytePos:b])
		bytePos = b
		return runePos
	}
	for _, ref := range refs {
		from := toRunes(ref.Start)
		to := toRunes(ref.End)
		out = append(out, Decoration{
			From:        from,
			To:          to,
			Alt:         ref.Alt,
			Destination: ref.Destination,
			State:       stateOf(ref.Destination),
		})
	}
	return out
}

func stateOf(destination string) DecorationState {
	switch {
	case strings.HasPrefix(destination, uploadingPrefix) && strings.HasSuffix(destination, uploadingSuffix):
		return StateUploading
	case strings.HasPrefix(destination, failedPrefix):
		return StateFailed
	default:
		return StateReady
	}
}
