package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// Journal event type names.
const (
	TypeSessionOpened = "SessionOpened"
	TypeContentSaved  = "ContentSaved"
	TypeSaveConflict  = "SaveConflict"
	TypeImageUploaded = "ImageUploaded"
	TypeUploadFailed  = "UploadFailed"
	TypeContentStale  = "ContentStale"
	TypeSessionClosed = "SessionClosed"
)

// SessionOpened is recorded when a file is opened for editing.
type SessionOpened struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// ContentSaved is recorded after a successful write to the content store.
type ContentSaved struct {
	Path        string `json:"path"`
	PreviousSHA string `json:"previous_sha"`
	SHA         string `json:"sha"`
	Message     string `json:"message"`
	Version     uint64 `json:"version"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// SaveConflict is recorded when the store rejects a save because the file
// changed upstream.
type SaveConflict struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// ImageUploaded is recorded when an image upload resolves successfully.
type ImageUploaded struct {
	UploadID   string `json:"upload_id"`
	Filename   string `json:"filename"`
	URL        string `json:"url"`
	DurationMS int64  `json:"duration_ms"`
}

// UploadFailed is recorded when an image upload resolves with an error.
type UploadFailed struct {
	UploadID string `json:"upload_id"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// ContentStale is recorded when a push to the tracked branch touched the
// file of an open session.
type ContentStale struct {
	Path    string `json:"path"`
	HeadSHA string `json:"head_sha"`
	Pusher  string `json:"pusher,omitempty"`
}

// SessionClosed is recorded when a session is closed explicitly or swept as idle.
type SessionClosed struct {
	Reason string `json:"reason"`
}

// NewEvent marshals a typed payload into a BaseEvent ready for Append.
func NewEvent(sessionID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, wrap(ErrMarshalPayloadFailed, err)
	}
	return &BaseEvent{
		EventSessionID: sessionID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// Decode unmarshals an event's payload into out.
func Decode(e Event, out any) error {
	if err := json.Unmarshal(e.Payload(), out); err != nil {
		return wrap(ErrUnmarshalPayloadFailed, err)
	}
	return nil
}

// Record marshals payload, appends it to store and returns the event so
// callers can feed it to a projection.
func Record(ctx context.Context, store Store, sessionID, eventType string, payload any, metadata map[string]string) (*BaseEvent, error) {
	event, err := NewEvent(sessionID, eventType, payload)
	if err != nil {
		return nil, err
	}
	event.EventMetadata = metadata
	if err := store.Append(ctx, sessionID, eventType, event.EventPayload, metadata); err != nil {
		return nil, err
	}
	return event, nil
}
