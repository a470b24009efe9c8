// Package eventstore journals editing activity (opens, saves, upload outcomes,
// conflicts) in SQLite and projects it into per-session summaries.
package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	sessionStatusOpen   = "open"
	sessionStatusClosed = "closed"
)

// SessionSummary is a read model of one editing session.
type SessionSummary struct {
	SessionID      string     `json:"session_id"`
	Path           string     `json:"path"`
	Status         string     `json:"status"` // "open", "closed"
	OpenedAt       time.Time  `json:"opened_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	LastSavedAt    *time.Time `json:"last_saved_at,omitempty"`
	LastSHA        string     `json:"last_sha,omitempty"`
	Saves          int        `json:"saves"`
	Conflicts      int        `json:"conflicts"`
	Uploads        int        `json:"uploads"`
	UploadFailures int        `json:"upload_failures"`
	LastError      string     `json:"last_error,omitempty"`
	Stale          bool       `json:"stale"`
}

// SessionHistoryProjection maintains an in-memory view of session activity,
// reconstructed from the journal.
type SessionHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	sessions map[string]*SessionSummary
	maxSize  int
	lastSync time.Time
}

// NewSessionHistoryProjection creates a projection backed by store that keeps
// at most maxSessions summaries.
func NewSessionHistoryProjection(store Store, maxSessions int) *SessionHistoryProjection {
	if maxSessions <= 0 {
		maxSessions = 100
	}
	return &SessionHistoryProjection{
		store:    store,
		sessions: make(map[string]*SessionSummary),
		maxSize:  maxSessions,
	}
}

// Rebuild reconstructs the projection from every event in the journal.
func (p *SessionHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.Range(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sessions = make(map[string]*SessionSummary)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	p.pruneLocked()
	p.lastSync = time.Now()
	return nil
}

// Apply folds a single event into the projection.
func (p *SessionHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
	p.pruneLocked()
}

func (p *SessionHistoryProjection) applyEventLocked(event Event) {
	id := event.SessionID()
	if id == "" {
		return
	}

	summary, exists := p.sessions[id]
	if !exists {
		summary = &SessionSummary{
			SessionID: id,
			Status:    sessionStatusOpen,
			OpenedAt:  event.Timestamp(),
		}
		p.sessions[id] = summary
	}

	switch event.Type() {
	case TypeSessionOpened:
		var payload SessionOpened
		if Decode(event, &payload) == nil {
			summary.Path = payload.Path
			summary.LastSHA = payload.SHA
		}
		summary.OpenedAt = event.Timestamp()

	case TypeContentSaved:
		var payload ContentSaved
		if Decode(event, &payload) == nil {
			if payload.Path != "" {
				summary.Path = payload.Path
			}
			summary.LastSHA = payload.SHA
		}
		at := event.Timestamp()
		summary.LastSavedAt = &at
		summary.Saves++
		summary.Stale = false

	case TypeSaveConflict:
		summary.Conflicts++
		summary.LastError = "content changed upstream"

	case TypeImageUploaded:
		summary.Uploads++

	case TypeUploadFailed:
		summary.UploadFailures++
		var payload UploadFailed
		if Decode(event, &payload) == nil {
			summary.LastError = payload.Error
		}

	case TypeContentStale:
		summary.Stale = true

	case TypeSessionClosed:
		at := event.Timestamp()
		summary.ClosedAt = &at
		summary.Status = sessionStatusClosed
	}
}

// pruneLocked drops the oldest closed sessions once the projection is over
// capacity. Open sessions are never dropped.
func (p *SessionHistoryProjection) pruneLocked() {
	if len(p.sessions) <= p.maxSize {
		return
	}
	closed := make([]*SessionSummary, 0, len(p.sessions))
	for _, s := range p.sessions {
		if s.Status == sessionStatusClosed {
			closed = append(closed, s)
		}
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].OpenedAt.Before(closed[j].OpenedAt) })
	for _, s := range closed {
		if len(p.sessions) <= p.maxSize {
			break
		}
		delete(p.sessions, s.SessionID)
	}
}

// History returns copies of all summaries, newest first.
func (p *SessionHistoryProjection) History() []SessionSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]SessionSummary, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].OpenedAt.After(out[j].OpenedAt)
	})
	return out
}

// Session returns a copy of one session's summary.
func (p *SessionHistoryProjection) Session(sessionID string) (SessionSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[sessionID]
	if !ok {
		return SessionSummary{}, false
	}
	return *s, true
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *SessionHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
