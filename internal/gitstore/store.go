package gitstore

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
	"git.home.luguber.info/inful/mdcms/internal/storage"
)

// Options configures a Store.
type Options struct {
	// Init creates the repository when Root is not one yet.
	Init bool

	AuthorName  string
	AuthorEmail string

	// MediaBaseURL prefixes uploaded media paths to form their URL.
	MediaBaseURL string

	// Push pushes every commit to Remote, authenticating with Token when set.
	Push   bool
	Remote string
	Token  string
}

// Store is a storage.Store on a local repository.
type Store struct {
	root   string
	repo   *git.Repository
	opts   Options
	logger *slog.Logger
	mu     sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// Open opens the repository at root.
func Open(root string, opts Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AuthorName == "" {
		opts.AuthorName = "mdcms"
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = "mdcms@localhost"
	}
	if opts.Remote == "" {
		opts.Remote = git.DefaultRemoteName
	}

	repo, err := git.PlainOpen(root)
	if stderrors.Is(err, git.ErrRepositoryNotExists) && opts.Init {
		if mkErr := os.MkdirAll(root, 0o750); mkErr != nil {
			return nil, errors.WrapError(mkErr, errors.CategoryFileSystem, "create repository root").Build()
		}
		repo, err = git.PlainInit(root, false)
	}
	if err != nil {
		return nil, classifyGitError(err, "open")
	}
	return &Store{root: root, repo: repo, opts: opts, logger: logger}, nil
}

// BlobSHA is the git blob hash of content.
func BlobSHA(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}

func (s *Store) GetFile(_ context.Context, p string) (*storage.File, error) {
	clean, err := storage.CleanPath(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read(clean)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, storage.NotFound(clean)
	}
	return &storage.File{Path: clean, Content: data, SHA: BlobSHA(data)}, nil
}

func (s *Store) PutFile(ctx context.Context, p string, content []byte, sha, message string) (string, error) {
	clean, err := storage.CleanPath(p)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.read(clean)
	if err != nil {
		return "", err
	}
	if (current == nil && sha != "") || (current != nil && BlobSHA(current) != sha) {
		return "", storage.Conflict(clean)
	}

	if message == "" {
		message = "Update " + clean
	}
	if err := s.writeAndCommit(ctx, clean, content, message); err != nil {
		return "", err
	}
	return BlobSHA(content), nil
}

// UploadImage commits the image and returns its public URL.
func (s *Store) UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error) {
	mediaPath, err := storage.MediaPath(folder, filename)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeAndCommit(ctx, mediaPath, data, "Upload "+path.Base(mediaPath)); err != nil {
		return "", errors.WrapError(err, errors.CategoryUpload, "could not store image").Build()
	}
	return storage.PublicURL(s.opts.MediaBaseURL, mediaPath)
}

// Head returns the current HEAD commit hash.
func (s *Store) Head() (string, error) {
	ref, err := s.repo.Head()
	if err != nil {
		return "", classifyGitError(err, "head")
	}
	return ref.Hash().String(), nil
}

func (s *Store) read(rel string) ([]byte, error) {
	// #nosec G304 - rel is cleaned by CleanPath and confined to the repository
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
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

func (s *Store) writeAndCommit(ctx context.Context, rel string, content []byte, message string) error {
	target := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithContext("path", rel).Build()
	}
	if err := os.WriteFile(target, content, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write file").WithContext("path", rel).Build()
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return classifyGitError(err, "worktree")
	}
	if _, err := wt.Add(rel); err != nil {
		return classifyGitError(err, "add")
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: s.opts.AuthorName, Email: s.opts.AuthorEmail, When: time.Now()},
	})
	if err != nil {
		return classifyGitError(err, "commit")
	}
	s.logger.Info("Committed content", logfields.Path(rel), slog.String("commit", hash.String()))

	if s.opts.Push {
		return s.push(ctx)
	}
	return nil
}

func (s *Store) push(ctx context.Context) error {
	err := s.repo.PushContext(ctx, &git.PushOptions{RemoteName: s.opts.Remote, Auth: s.auth()})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return classifyGitError(err, "push")
	}
	return nil
}

func (s *Store) auth() transport.AuthMethod {
	if s.opts.Token == "" {
		return nil
	}
	// Most Git hosting services accept "token" as the username for token auth.
	return &http.BasicAuth{Username: "token", Password: s.opts.Token}
}
