package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving journal events.
type Store interface {
	// Append adds a new event to the journal.
	Append(ctx context.Context, sessionID, eventType string, payload []byte, metadata map[string]string) error

	// BySession retrieves all events recorded for an editing session, oldest first.
	BySession(ctx context.Context, sessionID string) ([]Event, error)

	// Range retrieves events within a time range, inclusive on both ends.
	Range(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
