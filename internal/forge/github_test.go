package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/storage"
)

// fakeGitHub serves a single repository's contents API from memory.
type fakeGitHub struct {
	mu       sync.Mutex
	files    map[string]string // path -> content
	shas     map[string]string
	requests []*http.Request
	bodies   []putContentRequest
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{files: map[string]string{}, shas: map[string]string{}}
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	const prefix = "/repos/octo/site/contents/"
	if len(r.URL.Path) <= len(prefix) || r.URL.Path[:len(prefix)] != prefix {
		http.NotFound(w, r)
		return
	}
	p := r.URL.Path[len(prefix):]

	switch r.Method {
	case http.MethodGet:
		content, ok := f.files[p]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(content))
		_ = json.NewEncoder(w).Encode(contentResponse{
			Type: "file", Path: p, SHA: f.shas[p], Encoding: "base64",
			Content: encoded[:4] + "\n" + encoded[4:],
		})
	case http.MethodPut:
		var body putContentRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.bodies = append(f.bodies, body)
		if _, exists := f.files[p]; exists && body.SHA != f.shas[p] {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"does not match"}`))
			return
		}
		if _, exists := f.files[p]; !exists && body.SHA != "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"sha wasn't supplied"}`))
			return
		}
		data, _ := base64.StdEncoding.DecodeString(body.Content)
		f.files[p] = string(data)
		f.shas[p] = storage.ContentSHA(data)[:40]
		w.WriteHeader(http.StatusCreated)
		resp := putContentResponse{Content: contentResponse{Path: p, SHA: f.shas[p], DownloadURL: "https://raw.example.com/" + p}}
		resp.Commit.SHA = "c0ffee"
		_ = json.NewEncoder(w).Encode(resp)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *GitHubClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewGitHubClient(Config{
		APIURL: srv.URL, Owner: "octo", Repo: "site", Branch: "main", Token: "secret",
		CommitterName: "Editor", CommitterEmail: "editor@example.com",
	}, nil)
	require.NoError(t, err)
	return c
}

func TestNewGitHubClient_Validation(t *testing.T) {
	_, err := NewGitHubClient(Config{Owner: "o", Repo: "r"}, nil)
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = NewGitHubClient(Config{Token: "t"}, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestGitHubClient_GetAndPut(t *testing.T) {
	gh := newFakeGitHub()
	gh.files["content/hello.md"] = "# Hello\n"
	gh.shas["content/hello.md"] = "abc123"
	c := newTestClient(t, gh)
	ctx := context.Background()

	f, err := c.GetFile(ctx, "/content/hello.md")
	require.NoError(t, err)
	assert.Equal(t, "content/hello.md", f.Path)
	assert.Equal(t, "# Hello\n", string(f.Content))
	assert.Equal(t, "abc123", f.SHA)

	req := gh.requests[0]
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
	assert.Equal(t, "main", req.URL.Query().Get("ref"))

	sha, err := c.PutFile(ctx, "content/hello.md", []byte("# Hi\n"), "abc123", "Edit hello")
	require.NoError(t, err)
	assert.NotEmpty(t, sha)
	require.Len(t, gh.bodies, 1)
	assert.Equal(t, "Edit hello", gh.bodies[0].Message)
	assert.Equal(t, "main", gh.bodies[0].Branch)
	assert.Equal(t, &committer{Name: "Editor", Email: "editor@example.com"}, gh.bodies[0].Committer)
	assert.Equal(t, "# Hi\n", gh.files["content/hello.md"])
}

func TestGitHubClient_StaleSHAIsConflict(t *testing.T) {
	gh := newFakeGitHub()
	gh.files["a.md"] = "x"
	gh.shas["a.md"] = "current"
	c := newTestClient(t, gh)

	_, err := c.PutFile(context.Background(), "a.md", []byte("y"), "old", "")
	require.Error(t, err)
	assert.True(t, storage.IsConflict(err))
	assert.Equal(t, "x", gh.files["a.md"])

	_, err = c.PutFile(context.Background(), "gone.md", []byte("y"), "old", "")
	assert.True(t, storage.IsConflict(err))
}

func TestGitHubClient_NotFound(t *testing.T) {
	c := newTestClient(t, newFakeGitHub())
	_, err := c.GetFile(context.Background(), "missing.md")
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))
}

func TestGitHubClient_UploadImage(t *testing.T) {
	gh := newFakeGitHub()
	c := newTestClient(t, gh)

	url, err := c.UploadImage(context.Background(), []byte("png"), "café.png", "static/media")
	require.NoError(t, err)
	assert.Equal(t, "https://raw.example.com/static/media/café.png", url)
	assert.Equal(t, "png", gh.files["static/media/café.png"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png")), gh.bodies[0].Content)

	_, err = c.UploadImage(context.Background(), []byte("png"), "café.png", "static/media")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryUpload))
	assert.Equal(t, "an image with this name already exists", errors.UserMessage(err))
}

func TestGitHubClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		category errors.ErrorCategory
	}{
		{http.StatusUnauthorized, errors.CategoryAuth},
		{http.StatusForbidden, errors.CategoryAuth},
		{http.StatusInternalServerError, errors.CategoryForge},
	}
	for _, tt := range tests {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}))
		_, err := c.GetFile(context.Background(), "a.md")
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, tt.category), "status %d", tt.status)
	}
}

func TestGitHubClient_RejectsDirectories(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(contentResponse{Type: "dir", Path: "content"})
	}))
	_, err := c.GetFile(context.Background(), "content")
	assert.ErrorIs(t, err, ErrNotAFile)
}
