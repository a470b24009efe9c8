package eventstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRebuild(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := Record(ctx, store, testSessionID, TypeSessionOpened, SessionOpened{Path: "docs/a.md", SHA: "s0"}, nil)
	require.NoError(t, err)
	_, err = Record(ctx, store, testSessionID, TypeImageUploaded, ImageUploaded{UploadID: "u1", Filename: "a.png", URL: "https://x/a.png"}, nil)
	require.NoError(t, err)
	_, err = Record(ctx, store, testSessionID, TypeUploadFailed, UploadFailed{UploadID: "u2", Filename: "b.png", Error: "boom"}, nil)
	require.NoError(t, err)
	_, err = Record(ctx, store, testSessionID, TypeContentStale, ContentStale{Path: "docs/a.md", HeadSHA: "abc"}, nil)
	require.NoError(t, err)
	_, err = Record(ctx, store, testSessionID, TypeSaveConflict, SaveConflict{Path: "docs/a.md", SHA: "s0"}, nil)
	require.NoError(t, err)
	_, err = Record(ctx, store, testSessionID, TypeContentSaved, ContentSaved{Path: "docs/a.md", PreviousSHA: "s0", SHA: "s1", Version: 3}, nil)
	require.NoError(t, err)

	projection := NewSessionHistoryProjection(store, 10)
	require.NoError(t, projection.Rebuild(ctx))
	assert.False(t, projection.LastSyncTime().IsZero())

	summary, ok := projection.Session(testSessionID)
	require.True(t, ok)
	assert.Equal(t, "docs/a.md", summary.Path)
	assert.Equal(t, "s1", summary.LastSHA)
	assert.Equal(t, 1, summary.Saves)
	assert.Equal(t, 1, summary.Conflicts)
	assert.Equal(t, 1, summary.Uploads)
	assert.Equal(t, 1, summary.UploadFailures)
	assert.False(t, summary.Stale, "a save clears staleness")
	assert.NotNil(t, summary.LastSavedAt)
	assert.Equal(t, sessionStatusOpen, summary.Status)
}

func TestApplyClosesSession(t *testing.T) {
	store := newTestStore(t)
	projection := NewSessionHistoryProjection(store, 10)

	opened, err := NewEvent(testSessionID, TypeSessionOpened, SessionOpened{Path: "a.md"})
	require.NoError(t, err)
	projection.Apply(opened)

	closed, err := NewEvent(testSessionID, TypeSessionClosed, SessionClosed{Reason: "idle"})
	require.NoError(t, err)
	projection.Apply(closed)

	summary, ok := projection.Session(testSessionID)
	require.True(t, ok)
	assert.Equal(t, sessionStatusClosed, summary.Status)
	assert.NotNil(t, summary.ClosedAt)
}

func TestPruneDropsOldestClosedSessions(t *testing.T) {
	projection := NewSessionHistoryProjection(newTestStore(t), 2)

	for _, id := range []string{"a", "b", "c"} {
		ev, err := NewEvent(id, TypeSessionOpened, SessionOpened{Path: id + ".md"})
		require.NoError(t, err)
		projection.Apply(ev)
	}
	// All open: nothing is dropped.
	assert.Len(t, projection.History(), 3)

	closed, err := NewEvent("a", TypeSessionClosed, SessionClosed{Reason: "closed"})
	require.NoError(t, err)
	projection.Apply(closed)

	history := projection.History()
	require.Len(t, history, 2)
	_, ok := projection.Session("a")
	assert.False(t, ok)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	ev := &BaseEvent{EventSessionID: testSessionID, EventType: TypeContentSaved, EventPayload: []byte("{")}
	var out ContentSaved
	require.ErrorIs(t, Decode(ev, &out), ErrUnmarshalPayloadFailed)
}
