package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and demos.
type MemoryStore struct {
	mu      sync.RWMutex
	files   map[string][]byte
	media   map[string][]byte
	baseURL string
	calls   MemoryCalls
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Get    int
	Put    int
	Upload int
}

func NewMemoryStore(mediaBaseURL string) *MemoryStore {
	return &MemoryStore{
		files:   make(map[string][]byte),
		media:   make(map[string][]byte),
		baseURL: mediaBaseURL,
	}
}

// Seed stores content without version checks and returns its SHA.
func (m *MemoryStore) Seed(path string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), content...)
	return ContentSHA(content)
}

func (m *MemoryStore) GetFile(_ context.Context, p string) (*File, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++
	data, ok := m.files[clean]
	if !ok {
		return nil, NotFound(clean)
	}
	return &File{Path: clean, Content: append([]byte(nil), data...), SHA: ContentSHA(data)}, nil
}

func (m *MemoryStore) PutFile(_ context.Context, p string, content []byte, sha, _ string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++
	current, ok := m.files[clean]
	if (ok && ContentSHA(current) != sha) || (!ok && sha != "") {
		return "", Conflict(clean)
	}
	m.files[clean] = append([]byte(nil), content...)
	return ContentSHA(content), nil
}

func (m *MemoryStore) UploadImage(_ context.Context, data []byte, filename, folder string) (string, error) {
	mediaPath, err := MediaPath(folder, filename)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Upload++
	m.media[mediaPath] = append([]byte(nil), data...)
	return PublicURL(m.baseURL, mediaPath)
}

// Media returns a stored upload.
func (m *MemoryStore) Media(mediaPath string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.media[mediaPath]
	return data, ok
}

func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
