// Package editor is the structural markdown editing engine: an editing
// session holding a document and selection, the multi-range dispatcher that
// turns toolbar commands into atomic transactions, the formatting-state
// detector and the asynchronous image insertion controller.
//
// A Session is safe for concurrent use. Image uploads resolve on their own
// goroutines and commit through the same path as commands.
package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
	"git.home.luguber.info/inful/mdcms/internal/metrics"
)

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id used in logs. A random id is used otherwise.
func WithID(id string) Option { return func(s *Session) { s.id = id } }

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(recorder metrics.Recorder) Option {
	return func(s *Session) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithUploader sets the collaborator that stores inserted images.
func WithUploader(u Uploader) Option { return func(s *Session) { s.uploader = u } }

// WithMediaFolder sets the destination folder passed to the uploader.
func WithMediaFolder(folder string) Option { return func(s *Session) { s.mediaFolder = folder } }

// WithOnFlags registers an observer called whenever the formatting flags
// change, including on pure selection moves.
func WithOnFlags(fn func(Flags)) Option { return func(s *Session) { s.onFlags = fn } }

// Session is one open document.
//
// Observers (onChange, the flags observer) run outside the state lock, one
// at a time and in commit order. They may call back into the session. When
// several goroutines commit concurrently, a notification can be delivered by
// a goroutine other than the one that committed.
type Session struct {
	id          string
	logger      *slog.Logger
	recorder    metrics.Recorder
	uploader    Uploader
	mediaFolder string
	onChange    func(string)
	onFlags     func(Flags)

	mu        sync.Mutex
	doc       *docmodel.Document
	sel       docmodel.Selection
	flags     Flags
	pending   map[string]*Upload
	queue     []notice
	notifying bool
}

// Snapshot is a consistent view of a session.
type Snapshot struct {
	Text           string             `json:"text"`
	Version        uint64             `json:"version"`
	Selection      docmodel.Selection `json:"selection"`
	Flags          Flags              `json:"flags"`
	Editable       bool               `json:"editable"`
	PendingUploads int                `json:"pendingUploads"`
}

type notice struct {
	text         string
	changed      bool
	flags        Flags
	flagsChanged bool
}

// New opens a session on initialText with the caret at the start. onChange,
// when non-nil, receives the full text after every committed transaction.
func New(initialText string, onChange func(string), opts ...Option) *Session {
	s := &Session{
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		onChange: onChange,
		doc:      docmodel.New(initialText),
		sel:      docmodel.Single(docmodel.Caret(0)),
		pending:  make(map[string]*Upload),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.logger = s.logger.With(logfields.SessionID(s.id))
	s.flags = Detect(s.doc, s.sel)
	return s
}

func (s *Session) ID() string { return s.id }

// CurrentText returns the serialized document.
func (s *Session) CurrentText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Text()
}

func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Version()
}

func (s *Session) Selection() docmodel.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// FormattingFlags returns the flags for the current document and selection.
func (s *Session) FormattingFlags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// Editable reports whether edits are accepted. It is false while any image
// upload is pending.
func (s *Session) Editable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) == 0
}

// Decorations returns the image decorations of the current text.
func (s *Session) Decorations() []Decoration {
	return Decorate(s.CurrentText())
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Text:           s.doc.Text(),
		Version:        s.doc.Version(),
		Selection:      s.sel,
		Flags:          s.flags,
		Editable:       len(s.pending) == 0,
		PendingUploads: len(s.pending),
	}
}

// Select replaces the selection; the first range is primary. Selection
// changes are accepted even while the document is read-only.
func (s *Session) Select(ranges ...docmodel.Range) error {
	return s.SetSelection(docmodel.Selection{Ranges: ranges})
}

// SetSelection replaces the selection after validating every range.
func (s *Session) SetSelection(sel docmodel.Selection) error {
	if len(sel.Ranges) == 0 {
		return errors.ValidationError("selection needs at least one range").Build()
	}

	s.mu.Lock()
	for _, r := range sel.Ranges {
		if err := s.doc.CheckRange(r.From, r.To); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.sel = sel.Normalize()
	var n notice
	s.refreshFlagsLocked(&n)
	s.unlockAndNotify(n)
	return nil
}

// ReplaceSelection types text over every selection range, leaving a caret
// after each insertion.
func (s *Session) ReplaceSelection(text string) error {
	s.mu.Lock()
	if err := s.checkEditableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	changes := make([]docmodel.Change, 0, len(s.sel.Ranges))
	for _, r := range s.sel.Ranges {
		changes = append(changes, docmodel.Change{From: r.From, To: r.To, Insert: text})
	}
	tx := docmodel.Transaction{Changes: changes, Selection: s.sel.Map(changes)}
	n, err := s.commitLocked(tx, metrics.SourceTyping)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.unlockAndNotify(n)
	return nil
}

// Dispatch runs a toolbar command across the whole selection as one
// transaction. On error the document is left untouched.
func (s *Session) Dispatch(cmd Command) error {
	if cmd.Name == CmdImage {
		if cmd.Image == nil {
			return errors.ValidationError("image command without a file").Build()
		}
		_, err := s.InsertImage(context.Background(), *cmd.Image)
		return err
	}

	log := s.logger.With(logfields.Command(string(cmd.Name)))
	op, err := cmd.Operator()
	if err != nil {
		s.recorder.IncCommand(string(cmd.Name), metrics.ResultFailed)
		log.Warn("Command rejected", logfields.Error(err))
		return err
	}

	s.mu.Lock()
	if err := s.checkEditableLocked(); err != nil {
		s.mu.Unlock()
		s.recorder.IncCommand(string(cmd.Name), metrics.ResultRejected)
		log.Debug("Command rejected while read-only")
		return err
	}

	tx, err := BuildTransaction(s.doc, s.sel, op)
	if err == nil {
		var n notice
		if n, err = s.commitLocked(tx, metrics.SourceCommand); err == nil {
			version, ranges := s.doc.Version(), len(s.sel.Ranges)
			s.unlockAndNotify(n)
			s.recorder.IncCommand(string(cmd.Name), metrics.ResultSuccess)
			log.Debug("Command applied", logfields.Version(version), logfields.Ranges(ranges))
			return nil
		}
	}
	s.mu.Unlock()

	s.recorder.IncCommand(string(cmd.Name), metrics.ResultFailed)
	log.Warn("Command discarded", logfields.Error(err))
	return err
}

func (s *Session) checkEditableLocked() error {
	if len(s.pending) == 0 {
		return nil
	}
	return errors.ReadOnlyError("document is read-only while an image upload is pending").
		WithContext("pending_uploads", len(s.pending)).
		Build()
}

// commitLocked applies tx and maps pending placeholder offsets through it.
func (s *Session) commitLocked(tx docmodel.Transaction, source metrics.TransactionSource) (notice, error) {
	var n notice
	if tx.Empty() {
		s.sel = tx.Selection.Clamp(s.doc.Len())
		s.refreshFlagsLocked(&n)
		return n, nil
	}

	next, err := s.doc.Apply(tx.Changes)
	if err != nil {
		return n, err
	}
	s.doc = next
	s.sel = tx.Selection.Clamp(next.Len())
	for _, u := range s.pending {
		u.pos = docmodel.MapPos(u.pos, tx.Changes, 1)
	}
	s.recorder.IncTransaction(source)

	n.text, n.changed = next.Text(), true
	s.refreshFlagsLocked(&n)
	return n, nil
}

func (s *Session) refreshFlagsLocked(n *notice) {
	f := Detect(s.doc, s.sel)
	if f != s.flags {
		s.flags = f
		n.flags, n.flagsChanged = f, true
	}
}

// unlockAndNotify queues n, releases s.mu and drains the queue unless
// another goroutine is already draining it.
func (s *Session) unlockAndNotify(n notice) {
	if n.changed || n.flagsChanged {
		s.queue = append(s.queue, n)
	}
	if s.notifying || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}

	s.notifying = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.deliver(next)
		s.mu.Lock()
	}
	s.notifying = false
	s.mu.Unlock()
}

func (s *Session) deliver(n notice) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Session observer panicked", slog.Any("panic", r))
		}
	}()
	if n.changed && s.onChange != nil {
		s.onChange(n.text)
	}
	if n.flagsChanged && s.onFlags != nil {
		s.onFlags(n.flags)
	}
}
