package content

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdcms/internal/editor"
	"git.home.luguber.info/inful/mdcms/internal/eventstore"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// journalingUploader uploads through the store and journals each outcome
// against the session.
func (s *Service) journalingUploader(sessionID string) editor.Uploader {
	return editor.UploaderFunc(func(ctx context.Context, data []byte, filename, folder string) (string, error) {
		started := time.Now()
		url, err := s.store.UploadImage(ctx, data, filename, folder)

		uploadID := uuid.NewString()
		if err != nil {
			s.record(ctx, sessionID, eventstore.TypeUploadFailed, eventstore.UploadFailed{
				UploadID: uploadID,
				Filename: filename,
				Error:    errors.UserMessage(err),
			})
			return "", err
		}
		s.record(ctx, sessionID, eventstore.TypeImageUploaded, eventstore.ImageUploaded{
			UploadID:   uploadID,
			Filename:   filename,
			URL:        url,
			DurationMS: time.Since(started).Milliseconds(),
		})
		return url, nil
	})
}

// InsertImage starts an image upload in an open session.
func (s *Service) InsertImage(ctx context.Context, id string, file editor.ImageFile) (*editor.Upload, error) {
	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return doc.Session.InsertImage(ctx, file)
}
