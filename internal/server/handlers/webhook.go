package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/mdcms/internal/forge"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
)

const maxWebhookBody = 5 << 20

// StaleMarker flags open sessions touched by a push.
type StaleMarker interface {
	MarkStale(ctx context.Context, push forge.PushEvent) []string
}

// WebhookHandlers receives GitHub push webhooks.
type WebhookHandlers struct {
	errorAdapter *errors.HTTPErrorAdapter
	marker       StaleMarker
	secret       string
	branch       string
	logger       *slog.Logger
}

// NewWebhookHandlers constructs a new WebhookHandlers. Pushes to branches
// other than branch are acknowledged and ignored; an empty branch accepts all.
func NewWebhookHandlers(marker StaleMarker, adapter *errors.HTTPErrorAdapter, secret, branch string, logger *slog.Logger) *WebhookHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandlers{
		errorAdapter: adapter,
		marker:       marker,
		secret:       secret,
		branch:       branch,
		logger:       logger,
	}
}

type webhookResponse struct {
	Status string   `json:"status"`
	Event  string   `json:"event"`
	Stale  []string `json:"stale_sessions"`
}

// HandleGitHubWebhook validates the signature and marks sessions of pushed
// files stale.
func (h *WebhookHandlers) HandleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("failed to read webhook body").WithCause(err).Build())
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if signature == "" {
		signature = r.Header.Get("X-Hub-Signature")
	}
	if h.secret != "" && !forge.ValidateWebhook(payload, signature, h.secret) {
		h.errorAdapter.WriteErrorResponse(w, r, forge.ErrInvalidSignature)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	resp := webhookResponse{Status: "ignored", Event: eventType, Stale: []string{}}

	push, err := forge.ParsePushEvent(eventType, payload)
	switch {
	case stderrors.Is(err, forge.ErrUnsupportedEvent):
		_ = writeJSON(w, http.StatusAccepted, resp)
		return
	case err != nil:
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	if h.branch != "" && push.Branch != h.branch {
		h.logger.Debug("Ignoring push to untracked branch", slog.String("branch", push.Branch))
		_ = writeJSON(w, http.StatusAccepted, resp)
		return
	}

	resp.Status = "processed"
	if ids := h.marker.MarkStale(r.Context(), *push); len(ids) > 0 {
		resp.Stale = ids
	}
	h.logger.Info("Push webhook processed",
		slog.String("branch", push.Branch),
		slog.Int("paths", len(push.Paths)),
		slog.Int("stale_sessions", len(resp.Stale)),
		logfields.RemoteAddr(r.RemoteAddr))
	_ = writeJSON(w, http.StatusAccepted, resp)
}
