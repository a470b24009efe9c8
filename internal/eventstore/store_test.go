package eventstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

const testSessionID = "session-1"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndBySession(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	payload := []byte(`{"path":"docs/a.md"}`)
	require.NoError(t, store.Append(ctx, testSessionID, TypeSessionOpened, payload, map[string]string{"key": "value"}))
	require.NoError(t, store.Append(ctx, testSessionID, TypeContentSaved, []byte(`{}`), nil))
	require.NoError(t, store.Append(ctx, "other", TypeContentSaved, []byte(`{}`), nil))

	events, err := store.BySession(ctx, testSessionID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, testSessionID, first.SessionID())
	assert.Equal(t, TypeSessionOpened, first.Type())
	assert.Equal(t, payload, first.Payload())
	assert.Equal(t, "value", first.Metadata()["key"])
	assert.Equal(t, TypeContentSaved, events[1].Type())
	assert.Nil(t, events[1].Metadata())
	assert.Less(t, first.ID(), events[1].ID())
}

func TestAppendRequiresSession(t *testing.T) {
	store := newTestStore(t)
	err := store.Append(t.Context(), "", TypeContentSaved, nil, nil)
	require.ErrorIs(t, err, ErrMissingSessionID)
}

func TestRange(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		require.NoError(t, store.Append(ctx, testSessionID, TypeImageUploaded, []byte(`{}`), nil))
	}

	all, err := store.Range(ctx, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := store.Range(ctx, base.Add(30*time.Second), base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.True(t, some[0].Timestamp().Equal(base.Add(time.Minute)))

	none, err := store.Range(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPersistentStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), testSessionID, TypeContentSaved, []byte(`{}`), nil))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.BySession(t.Context(), testSessionID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestClosedStoreErrorsAreClassified(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(t.Context(), testSessionID, TypeContentSaved, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEventAppendFailed))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryEvents))
}
