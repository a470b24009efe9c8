package forge

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// ValidateWebhook checks an X-Hub-Signature-256 (or legacy sha1) header
// against payload.
func ValidateWebhook(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	var (
		newHash  func() hash.Hash
		expected string
	)
	switch {
	case strings.HasPrefix(signature, "sha256="):
		newHash, expected = sha256.New, signature[len("sha256="):]
	case strings.HasPrefix(signature, "sha1="):
		newHash, expected = sha1.New, signature[len("sha1="):]
	default:
		return false
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(payload)
	calc := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(calc))
}

type githubPushEvent struct {
	Ref     string `json:"ref"`
	After   string `json:"after"`
	Pusher  struct {
		Name string `json:"name"`
	} `json:"pusher"`
	Commits []struct {
		Added    []string `json:"added"`
		Modified []string `json:"modified"`
		Removed  []string `json:"removed"`
	} `json:"commits"`
}

// ParsePushEvent decodes a push webhook. Other event types return
// ErrUnsupportedEvent.
func ParsePushEvent(eventType string, payload []byte) (*PushEvent, error) {
	if eventType != "push" {
		return nil, ErrUnsupportedEvent
	}

	var raw githubPushEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid push payload").Build()
	}

	seen := make(map[string]bool)
	var paths []string
	for _, c := range raw.Commits {
		for _, group := range [][]string{c.Added, c.Modified, c.Removed} {
			for _, p := range group {
				if !seen[p] {
					seen[p] = true
					paths = append(paths, p)
				}
			}
		}
	}
	sort.Strings(paths)

	return &PushEvent{
		Branch:   strings.TrimPrefix(raw.Ref, "refs/heads/"),
		HeadSHA:  raw.After,
		Pusher:   raw.Pusher.Name,
		Paths:    paths,
		Received: time.Now(),
	}, nil
}
