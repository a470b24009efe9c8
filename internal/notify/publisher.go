// Package notify publishes content change events so downstream consumers
// (site builders, caches) learn about saves made through the editor.
package notify

import (
	"context"
	"time"
)

// Event types published on the content subject.
const (
	EventContentSaved = "content.saved"
	EventContentStale = "content.stale"
)

// ContentEvent describes a change to a content file.
type ContentEvent struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id,omitempty"`
	Path        string    `json:"path"`
	SHA         string    `json:"sha,omitempty"`
	PreviousSHA string    `json:"previous_sha,omitempty"`
	Message     string    `json:"message,omitempty"`
	Version     uint64    `json:"version,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher delivers content events.
type Publisher interface {
	Publish(ctx context.Context, event ContentEvent) error
	Close() error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ContentEvent) error { return nil }
func (NoopPublisher) Close() error                                { return nil }
