package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdcms/internal/content"
	ferrors "git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/storage"
)

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(code int)      { w.status = code }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestPreviewWriteFailureUsesInjectedLogger(t *testing.T) {
	mem := storage.NewMemoryStore("https://media.example.com")
	mem.Seed("docs/page.md", []byte("# Title\n"))
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := content.NewService(mem, content.Options{Logger: quiet})
	doc, err := service.Open(t.Context(), "docs/page.md")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewSessionHandlers(service, ferrors.NewHTTPErrorAdapter(quiet), SessionOptions{Logger: logger})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+doc.Session.ID()+"/preview", nil)
	req.SetPathValue("id", doc.Session.ID())
	w := &brokenWriter{header: http.Header{}}
	h.HandlePreview(w, req)

	assert.Equal(t, http.StatusOK, w.status)
	out := buf.String()
	assert.Contains(t, out, "Failed writing preview")
	assert.Contains(t, out, "session_id="+doc.Session.ID())
	assert.Contains(t, out, "path=docs/page.md")
	assert.Contains(t, out, `error="connection reset"`)
}
