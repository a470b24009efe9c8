package content

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/mdcms/internal/eventstore"
	"git.home.luguber.info/inful/mdcms/internal/forge"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
	"git.home.luguber.info/inful/mdcms/internal/notify"
)

// MarkStale flags every open session whose file was touched by a push, so
// clients can warn before a save runs into a conflict. It returns the ids of
// the affected sessions.
func (s *Service) MarkStale(ctx context.Context, push forge.PushEvent) []string {
	touched := make(map[string]struct{}, len(push.Paths))
	for _, p := range push.Paths {
		touched[p] = struct{}{}
	}

	s.mu.Lock()
	var hits []string
	var docs []*Document
	for id, doc := range s.docs {
		if _, ok := touched[doc.Path]; ok {
			hits = append(hits, id)
			docs = append(docs, doc)
		}
	}
	s.mu.Unlock()

	for i, doc := range docs {
		id := hits[i]
		doc.mu.Lock()
		doc.stale = true
		doc.mu.Unlock()

		s.record(ctx, id, eventstore.TypeContentStale, eventstore.ContentStale{
			Path:    doc.Path,
			HeadSHA: push.HeadSHA,
			Pusher:  push.Pusher,
		})
		s.publish(ctx, notify.ContentEvent{
			Type:      notify.EventContentStale,
			SessionID: id,
			Path:      doc.Path,
			SHA:       push.HeadSHA,
		})
		s.logger.Info("Open session is stale after push",
			logfields.SessionID(id),
			logfields.Path(doc.Path),
			slog.String("head_sha", push.HeadSHA))
	}
	return hits
}
