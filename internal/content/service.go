// Package content is the editing service: it opens stored markdown files as
// editor sessions, saves them back through the content store, journals what
// happened and announces saves to subscribers.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/editor"
	"git.home.luguber.info/inful/mdcms/internal/eventstore"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/frontmatter"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
	"git.home.luguber.info/inful/mdcms/internal/metrics"
	"git.home.luguber.info/inful/mdcms/internal/notify"
	"git.home.luguber.info/inful/mdcms/internal/storage"
)

// ErrSessionNotFound is returned for unknown or closed session ids.
var ErrSessionNotFound = errors.NotFoundError("editing session not found").Build()

// ErrUploadsPending is returned when saving while images are still uploading.
var ErrUploadsPending = errors.ReadOnlyError("cannot save while image uploads are pending").Build()

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MediaFolder        string
	RefreshFingerprint bool
	// IdleTimeout closes sessions not touched for this long. Zero disables
	// the sweep.
	IdleTimeout time.Duration

	Logger    *slog.Logger
	Recorder  metrics.Recorder
	Journal   eventstore.Store
	Publisher notify.Publisher
	Now       func() time.Time
}

// Service manages open editing sessions over a content store.
type Service struct {
	store      storage.Store
	opts       Options
	logger     *slog.Logger
	recorder   metrics.Recorder
	publisher  notify.Publisher
	projection *eventstore.SessionHistoryProjection

	mu       sync.Mutex
	docs     map[string]*Document
	mediaDir string
}

// Document is an open file: its editor session plus the bookkeeping needed
// to write it back.
type Document struct {
	Session *editor.Session
	Path    string

	parsed *docmodel.ParsedDoc

	lastAccess atomic.Int64 // unix nanoseconds

	mu      sync.Mutex
	sha     string
	savedAt uint64
	stale   bool
}

// SHA returns the store revision the session was loaded from or last saved as.
func (d *Document) SHA() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sha
}

// Stale reports whether the file changed upstream since it was loaded.
func (d *Document) Stale() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stale
}

// Dirty reports whether the session has commits that were not saved.
func (d *Document) Dirty() bool {
	d.mu.Lock()
	saved := d.savedAt
	d.mu.Unlock()
	return d.Session.Version() != saved
}

func (d *Document) touch(now time.Time) { d.lastAccess.Store(now.UnixNano()) }

func (d *Document) lastUsed() time.Time { return time.Unix(0, d.lastAccess.Load()) }

// SaveResult describes a completed save.
type SaveResult struct {
	SHA       string `json:"sha"`
	Version   uint64 `json:"version"`
	Unchanged bool   `json:"unchanged"`
}

// NewService creates a Service over store.
func NewService(store storage.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Publisher == nil {
		opts.Publisher = notify.NoopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		store:     store,
		opts:      opts,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		publisher: opts.Publisher,
		docs:      make(map[string]*Document),
		mediaDir:  opts.MediaFolder,
	}
	if opts.Journal != nil {
		s.projection = eventstore.NewSessionHistoryProjection(opts.Journal, 0)
	}
	return s
}

// Rebuild reloads the session history projection from the journal.
func (s *Service) Rebuild(ctx context.Context) error {
	if s.projection == nil {
		return nil
	}
	return s.projection.Rebuild(ctx)
}

// SetMediaFolder changes the folder used for images inserted by sessions
// opened afterwards.
func (s *Service) SetMediaFolder(folder string) {
	s.mu.Lock()
	s.mediaDir = folder
	s.mu.Unlock()
}

// MediaFolder is the folder new sessions upload images to.
func (s *Service) MediaFolder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaDir
}

// Open loads path from the store and starts an editing session on its body.
func (s *Service) Open(ctx context.Context, path string) (*Document, error) {
	clean, err := storage.CleanPath(path)
	if err != nil {
		return nil, err
	}

	file, err := s.store.GetFile(ctx, clean)
	if err != nil {
		return nil, err
	}
	parsed, err := docmodel.Parse(file.Content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse content file").
			WithContext("path", clean).
			Build()
	}

	id := uuid.NewString()
	folder := s.MediaFolder()

	doc := &Document{
		Path:   clean,
		parsed: parsed,
		sha:    file.SHA,
	}
	doc.touch(s.opts.Now())
	doc.Session = editor.New(parsed.Body(), nil,
		editor.WithID(id),
		editor.WithLogger(s.logger),
		editor.WithRecorder(s.recorder),
		editor.WithUploader(s.journalingUploader(id)),
		editor.WithMediaFolder(folder),
	)
	doc.savedAt = doc.Session.Version()

	s.mu.Lock()
	s.docs[id] = doc
	open := len(s.docs)
	s.mu.Unlock()
	s.recorder.SetOpenSessions(open)

	s.record(ctx, id, eventstore.TypeSessionOpened, eventstore.SessionOpened{Path: clean, SHA: file.SHA})
	s.logger.Info("Editing session opened",
		logfields.SessionID(id),
		logfields.Path(clean),
		slog.Bool("frontmatter", parsed.HadFrontmatter()))
	return doc, nil
}

// Get returns an open document and marks it as recently used.
func (s *Service) Get(id string) (*Document, error) {
	s.mu.Lock()
	doc, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound.WithContext("session_id", id)
	}
	doc.touch(s.opts.Now())
	return doc, nil
}

// IDs returns the ids of all open sessions, sorted.
func (s *Service) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the session's text back to the store. The write carries the
// sha the session was loaded with, so a file changed upstream is rejected
// with a conflict error instead of being overwritten.
func (s *Service) Save(ctx context.Context, id, message string) (SaveResult, error) {
	doc, err := s.Get(id)
	if err != nil {
		return SaveResult{}, err
	}
	// Editability, text and version must come from one consistent view; an
	// upload starting between separate reads would leak its placeholder.
	snap := doc.Session.Snapshot()
	if !snap.Editable {
		s.recorder.IncSaveResult(metrics.ResultRejected)
		return SaveResult{}, ErrUploadsPending
	}
	text, version := snap.Text, snap.Version

	doc.mu.Lock()
	defer doc.mu.Unlock()

	if version == doc.savedAt {
		return SaveResult{SHA: doc.sha, Version: version, Unchanged: true}, nil
	}

	content, err := doc.parsed.Join(text, s.opts.RefreshFingerprint, s.opts.Now())
	if err != nil {
		s.recorder.IncSaveResult(metrics.ResultFailed)
		return SaveResult{}, err
	}
	if message == "" {
		message = fmt.Sprintf("Update %s", doc.Path)
	}

	previous := doc.sha
	sha, err := s.store.PutFile(ctx, doc.Path, content, previous, message)
	if err != nil {
		if storage.IsConflict(err) {
			s.recorder.IncSaveResult(metrics.ResultConflict)
			s.record(ctx, id, eventstore.TypeSaveConflict, eventstore.SaveConflict{Path: doc.Path, SHA: previous})
			s.logger.Warn("Save rejected, file changed upstream", logfields.SessionID(id), logfields.Path(doc.Path))
		} else {
			s.recorder.IncSaveResult(metrics.ResultFailed)
			s.logger.Error("Save failed", logfields.SessionID(id), logfields.Path(doc.Path), logfields.Error(err))
		}
		return SaveResult{}, err
	}

	doc.sha = sha
	doc.savedAt = version
	doc.stale = false
	s.recorder.IncSaveResult(metrics.ResultSuccess)

	fingerprint := ""
	if block, _, splitErr := frontmatter.Split(content); splitErr == nil {
		fingerprint = block.Fingerprint()
	}
	s.record(ctx, id, eventstore.TypeContentSaved, eventstore.ContentSaved{
		Path:        doc.Path,
		PreviousSHA: previous,
		SHA:         sha,
		Message:     message,
		Version:     version,
		Fingerprint: fingerprint,
	})
	s.publish(ctx, notify.ContentEvent{
		Type:        notify.EventContentSaved,
		SessionID:   id,
		Path:        doc.Path,
		SHA:         sha,
		PreviousSHA: previous,
		Message:     message,
		Version:     version,
	})

	s.logger.Info("Content saved",
		logfields.SessionID(id),
		logfields.Path(doc.Path),
		logfields.Version(version),
		slog.String("sha", sha))
	return SaveResult{SHA: sha, Version: version}, nil
}

// Close ends a session. Unsaved changes are discarded.
func (s *Service) Close(ctx context.Context, id string) error {
	return s.closeWithReason(ctx, id, "closed")
}

// CloseAll ends every open session, journaling reason for each.
func (s *Service) CloseAll(ctx context.Context, reason string) int {
	closed := 0
	for _, id := range s.IDs() {
		if err := s.closeWithReason(ctx, id, reason); err == nil {
			closed++
		}
	}
	return closed
}

func (s *Service) closeWithReason(ctx context.Context, id, reason string) error {
	s.mu.Lock()
	doc, ok := s.docs[id]
	if ok {
		delete(s.docs, id)
	}
	open := len(s.docs)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound.WithContext("session_id", id)
	}
	s.recorder.SetOpenSessions(open)
	s.record(ctx, id, eventstore.TypeSessionClosed, eventstore.SessionClosed{Reason: reason})
	s.logger.Info("Editing session closed",
		logfields.SessionID(id),
		logfields.Path(doc.Path),
		slog.String("reason", reason),
		slog.Bool("dirty", doc.Dirty()))
	return nil
}

// History returns the journal summary of a session, open or closed.
func (s *Service) History(id string) (eventstore.SessionSummary, error) {
	if s.projection == nil {
		return eventstore.SessionSummary{}, errors.NotFoundError("session history is disabled").Build()
	}
	summary, ok := s.projection.Session(id)
	if !ok {
		return eventstore.SessionSummary{}, ErrSessionNotFound.WithContext("session_id", id)
	}
	return summary, nil
}

// record journals an event and folds it into the projection. Journal
// failures are logged; they never fail the editing operation.
func (s *Service) record(ctx context.Context, id, eventType string, payload any) {
	if s.opts.Journal == nil {
		return
	}
	event, err := eventstore.Record(ctx, s.opts.Journal, id, eventType, payload, nil)
	if err != nil {
		s.logger.Warn("Failed to journal event",
			logfields.SessionID(id),
			slog.String("event_type", eventType),
			logfields.Error(err))
		return
	}
	s.projection.Apply(event)
}

func (s *Service) publish(ctx context.Context, event notify.ContentEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish content event",
			logfields.Path(event.Path),
			slog.String("event_type", event.Type),
			logfields.Error(err))
	}
}
