package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "config.yaml", file)
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())
	})

	t.Run("wrapped cause", func(t *testing.T) {
		cause := stderrors.New("connection reset")
		err := WrapError(cause, CategoryForge, "put file failed").Retryable().Build()

		assert.ErrorIs(t, err, cause)
		assert.True(t, err.CanRetry())
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestSentinelSurvivesContextCopies(t *testing.T) {
	sentinel := ReadOnlyError("document is read-only").Build()
	err := sentinel.WithContext("upload_id", "abc")

	assert.ErrorIs(t, err, sentinel)
	_, hadKey := sentinel.Context().Get("upload_id")
	assert.False(t, hadKey, "WithContext must not mutate the sentinel")
}

func TestChainHelpers(t *testing.T) {
	inner := ConflictError("file changed upstream").Build()
	wrapped := fmt.Errorf("save: %w", inner)

	assert.True(t, HasCategory(wrapped, CategoryConflict))
	assert.Equal(t, CategoryConflict, GetCategory(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.Equal(t, "file changed upstream", UserMessage(wrapped))
	assert.Equal(t, "plain", UserMessage(stderrors.New("plain")))
}

func TestHasCategoryJoinedErrors(t *testing.T) {
	validation := ValidationError("unknown command").Build()
	conflict := fmt.Errorf("put: %w", ConflictError("file changed upstream").Build())

	joined := stderrors.Join(stderrors.New("usage"), validation)
	assert.True(t, HasCategory(joined, CategoryValidation))
	assert.False(t, HasCategory(joined, CategoryConflict))

	nested := fmt.Errorf("run: %w", stderrors.Join(stderrors.New("first"), conflict))
	assert.True(t, HasCategory(nested, CategoryConflict))

	multi := fmt.Errorf("%w and %w", stderrors.New("plain"), validation)
	assert.True(t, HasCategory(multi, CategoryValidation))
	assert.False(t, HasCategory(stderrors.Join(stderrors.New("a"), stderrors.New("b")), CategoryValidation))
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	cases := []struct {
		err    error
		status int
	}{
		{RangeError("offset out of bounds").Build(), http.StatusBadRequest},
		{ReadOnlyError("locked").Build(), http.StatusLocked},
		{ConflictError("stale sha").Build(), http.StatusConflict},
		{NewError(CategoryNotFound, "missing").Build(), http.StatusNotFound},
		{UploadError("failed").Build(), http.StatusBadGateway},
		{stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, adapter.StatusCodeFor(tc.err), tc.err.Error())
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/x", nil)
	adapter.WriteErrorResponse(rec, req, ConflictError("stale sha").WithContext("path", "docs/a.md").Build())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"stale sha","code":"conflict","details":{"path":"docs/a.md"}}`, rec.Body.String())
}
