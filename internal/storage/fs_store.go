package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// FSStore keeps content in a plain directory. Versions are content hashes,
// so a save conflicts when the file on disk no longer matches what the
// caller read.
type FSStore struct {
	root    string
	baseURL string
	mu      sync.RWMutex
}

// NewFSStore creates the root directory if needed. Uploaded media URLs are
// built from mediaBaseURL.
func NewFSStore(root, mediaBaseURL string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create content root").
			WithContext("root", root).
			Build()
	}
	return &FSStore{root: root, baseURL: mediaBaseURL}, nil
}

func (fs *FSStore) GetFile(_ context.Context, p string) (*File, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()
	data, err := fs.read(clean)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, NotFound(clean)
	}
	return &File{Path: clean, Content: data, SHA: ContentSHA(data)}, nil
}

func (fs *FSStore) PutFile(_ context.Context, p string, content []byte, sha, _ string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	current, err := fs.read(clean)
	if err != nil {
		return "", err
	}
	switch {
	case current == nil && sha != "":
		return "", Conflict(clean)
	case current != nil && ContentSHA(current) != sha:
		return "", Conflict(clean)
	}

	if err := fs.write(clean, content); err != nil {
		return "", err
	}
	return ContentSHA(content), nil
}

func (fs *FSStore) UploadImage(_ context.Context, data []byte, filename, folder string) (string, error) {
	mediaPath, err := MediaPath(folder, filename)
	if err != nil {
		return "", err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.write(mediaPath, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryUpload, "could not store image").Build()
	}
	return PublicURL(fs.baseURL, mediaPath)
}

// read returns nil data for a missing file.
func (fs *FSStore) read(rel string) ([]byte, error) {
	// #nosec G304 - rel is cleaned by CleanPath and confined to root
	data, err := os.ReadFile(filepath.Join(fs.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read file").WithContext("path", rel).Build()
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// write replaces the file atomically through a temp file in the same dir.
func (fs *FSStore) write(rel string, content []byte) error {
	target := filepath.Join(fs.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithContext("path", rel).Build()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".mdcms-*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create temp file").WithContext("path", rel).Build()
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return errors.WrapError(err, errors.CategoryFileSystem, "write file").WithContext("path", rel).Build()
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "close file").WithContext("path", rel).Build()
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, fmt.Sprintf("replace %s", rel)).Build()
	}
	return nil
}
