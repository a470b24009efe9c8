// Package storage defines the content store contract shared by the GitHub,
// git and filesystem backends, and provides the filesystem and in-memory
// backends.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// File is a stored document. SHA identifies the stored version and must be
// passed back on save.
type File struct {
	Path    string
	Content []byte
	SHA     string
}

// Store reads and writes content files and stores uploaded media.
type Store interface {
	// GetFile returns the file at path or a not-found error.
	GetFile(ctx context.Context, path string) (*File, error)

	// PutFile writes content and returns the new SHA. sha is the version the
	// caller last read; an empty sha creates the file. A stale sha is a
	// conflict error.
	PutFile(ctx context.Context, path string, content []byte, sha, message string) (string, error)

	// UploadImage stores data as folder/filename and returns the URL it is
	// served from.
	UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error)
}

// NotFound builds the error returned for missing files.
func NotFound(path string) error {
	return errors.NotFoundError("file not found").
		WithContext("path", path).
		Build()
}

// Conflict builds the error returned when a file changed since it was read.
func Conflict(path string) error {
	return errors.ConflictError("file was updated by someone else").
		WithContext("path", path).
		Build()
}

func IsNotFound(err error) bool { return errors.HasCategory(err, errors.CategoryNotFound) }
func IsConflict(err error) bool { return errors.HasCategory(err, errors.CategoryConflict) }

// ContentSHA is the version identifier used by the filesystem and memory
// backends.
func ContentSHA(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
