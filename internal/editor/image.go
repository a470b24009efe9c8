package editor

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
	"git.home.luguber.info/inful/mdcms/internal/metrics"
)

const (
	uploadingPrefix = "Uploading "
	uploadingSuffix = "..."
	failedPrefix    = "Upload failed: "
)

// ImageFile is an image picked or dropped by the user.
type ImageFile struct {
	Name        string
	Data        []byte
	ContentType string
}

// Uploader stores image bytes under folder and returns the URL the image is
// served from. Errors should carry a message fit for the user.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, data []byte, filename, folder string) (string, error)

func (f UploaderFunc) UploadImage(ctx context.Context, data []byte, filename, folder string) (string, error) {
	return f(ctx, data, filename, folder)
}

// PlaceholderText is the markup standing in for an upload in progress.
func PlaceholderText(name string) string {
	return "![" + name + "](" + uploadingPrefix + name + uploadingSuffix + ") "
}

// ImageText is the markup for an uploaded image.
func ImageText(name, url string) string {
	return "![" + name + "](" + url + ") "
}

var messageCleaner = strings.NewReplacer("\r", " ", "\n", " ", "(", "[", ")", "]")

// FailedText is the inline annotation left when an upload fails. The message
// is flattened so it cannot break the surrounding markup.
func FailedText(name, message string) string {
	return "![" + name + "](" + failedPrefix + messageCleaner.Replace(message) + ") "
}

// Upload tracks one pending image insertion.
type Upload struct {
	id          string
	name        string
	placeholder string
	started     time.Time
	done        chan struct{}

	// pos is the placeholder offset, mapped through every commit. Guarded by
	// the session lock.
	pos int

	url string
	err error
}

func (u *Upload) ID() string          { return u.id }
func (u *Upload) Name() string        { return u.name }
func (u *Upload) Placeholder() string { return u.placeholder }

// Done is closed once the placeholder has been resolved.
func (u *Upload) Done() <-chan struct{} { return u.done }

// Wait blocks until the upload resolves and returns its URL or error.
func (u *Upload) Wait(ctx context.Context) (string, error) {
	select {
	case <-u.done:
		return u.url, u.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// InsertImage inserts the upload placeholder at the primary caret, makes the
// document read-only and uploads the file in the background. When the upload
// resolves, the placeholder becomes the image markup or a failure
// annotation and the document becomes editable again once no other upload
// is pending.
//
// Cancellation of ctx does not abort the upload; only its values are kept.
func (s *Session) InsertImage(ctx context.Context, file ImageFile) (*Upload, error) {
	name := strings.TrimSpace(file.Name)
	if name == "" {
		return nil, errors.ValidationError("image file has no name").Build()
	}
	if s.uploader == nil {
		return nil, errors.UploadError("no image uploader configured").Build()
	}

	u := &Upload{
		id:          uuid.NewString(),
		name:        name,
		placeholder: PlaceholderText(name),
		done:        make(chan struct{}),
	}

	s.mu.Lock()
	u.pos = clampTo(s.sel.Head(), s.doc.Len())
	changes := []docmodel.Change{docmodel.Insertion(u.pos, u.placeholder)}
	n, err := s.commitLocked(docmodel.Transaction{Changes: changes, Selection: s.sel.Map(changes)}, metrics.SourceUpload)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.pending[u.id] = u
	s.unlockAndNotify(n)

	u.started = time.Now()
	s.logger.Info("Image upload started", logfields.UploadID(u.id), logfields.Filename(name))
	go s.runUpload(context.WithoutCancel(ctx), u, file.Data)
	return u, nil
}

// runUpload calls the uploader and always resolves the placeholder, also
// when the uploader panics.
func (s *Session) runUpload(ctx context.Context, u *Upload, data []byte) {
	var (
		url string
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			url = ""
			err = errors.UploadError("upload aborted unexpectedly").
				WithContext("panic", fmt.Sprint(r)).
				Build()
		}
		s.resolveUpload(u, url, err)
	}()

	url, err = s.uploader.UploadImage(ctx, data, u.name, s.mediaFolder)
	if err == nil && strings.TrimSpace(url) == "" {
		err = errors.UploadError("upload returned no download URL").Build()
	}
}

func (s *Session) resolveUpload(u *Upload, url string, uploadErr error) {
	u.url, u.err = url, uploadErr
	if uploadErr != nil {
		u.url = ""
	}
	replacement := ImageText(u.name, url)
	if uploadErr != nil {
		replacement = FailedText(u.name, errors.UserMessage(uploadErr))
	}

	s.mu.Lock()
	delete(s.pending, u.id)
	pos := s.locatePlaceholderLocked(u)
	var (
		n         notice
		commitErr error
	)
	if pos >= 0 {
		changes := []docmodel.Change{{
			From:   pos,
			To:     pos + utf8.RuneCountInString(u.placeholder),
			Insert: replacement,
		}}
		n, commitErr = s.commitLocked(docmodel.Transaction{Changes: changes, Selection: s.sel.Map(changes)}, metrics.SourceUpload)
	}
	stillPending := len(s.pending)
	s.unlockAndNotify(n)
	close(u.done)

	elapsed := time.Since(u.started)
	s.recorder.ObserveUploadDuration(elapsed, uploadErr == nil)
	s.recorder.IncUploadResult(metrics.ResultFor(uploadErr == nil))

	log := s.logger.With(logfields.UploadID(u.id), logfields.Filename(u.name), logfields.Duration(elapsed))
	switch {
	case pos < 0:
		log.Warn("Upload placeholder no longer in document, result dropped")
	case commitErr != nil:
		log.Error("Failed to substitute upload placeholder", logfields.Error(commitErr))
	case uploadErr != nil:
		log.Warn("Image upload failed", logfields.Error(uploadErr), logfields.Pending(stillPending))
	default:
		log.Info("Image upload completed", logfields.Pending(stillPending))
	}
}

// locatePlaceholderLocked returns the placeholder offset: the tracked one
// when it still holds the placeholder, else the first exact occurrence, else
// -1.
func (s *Session) locatePlaceholderLocked(u *Upload) int {
	if s.doc.HasAt(u.pos, u.placeholder) {
		return u.pos
	}
	return s.doc.Index(u.placeholder)
}
