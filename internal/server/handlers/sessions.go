package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/mdcms/internal/content"
	"git.home.luguber.info/inful/mdcms/internal/docmodel"
	"git.home.luguber.info/inful/mdcms/internal/editor"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/logfields"
	"git.home.luguber.info/inful/mdcms/internal/preview"
)

// SessionHandlers serves the editing API over a content.Service.
type SessionHandlers struct {
	service        *content.Service
	errorAdapter   *errors.HTTPErrorAdapter
	previewBaseURL string
	maxUploadBytes int64
	uploadWait     time.Duration
	logger         *slog.Logger
}

// SessionOptions configures SessionHandlers.
type SessionOptions struct {
	// PreviewBaseURL resolves relative image sources in previews.
	PreviewBaseURL string
	MaxUploadBytes int64
	// UploadWait bounds how long an image request with wait=true blocks.
	UploadWait time.Duration
	Logger     *slog.Logger
}

// NewSessionHandlers constructs the editing API handlers.
func NewSessionHandlers(service *content.Service, adapter *errors.HTTPErrorAdapter, opts SessionOptions) *SessionHandlers {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.UploadWait <= 0 {
		opts.UploadWait = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SessionHandlers{
		service:        service,
		errorAdapter:   adapter,
		previewBaseURL: opts.PreviewBaseURL,
		maxUploadBytes: opts.MaxUploadBytes,
		uploadWait:     opts.UploadWait,
		logger:         opts.Logger,
	}
}

// Register adds the session routes to mux.
func (h *SessionHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.HandleOpen)
	mux.HandleFunc("GET /api/sessions", h.HandleList)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleClose)
	mux.HandleFunc("POST /api/sessions/{id}/select", h.HandleSelect)
	mux.HandleFunc("POST /api/sessions/{id}/type", h.HandleType)
	mux.HandleFunc("POST /api/sessions/{id}/commands", h.HandleCommand)
	mux.HandleFunc("POST /api/sessions/{id}/images", h.HandleImage)
	mux.HandleFunc("POST /api/sessions/{id}/save", h.HandleSave)
	mux.HandleFunc("GET /api/sessions/{id}/preview", h.HandlePreview)
	mux.HandleFunc("GET /api/sessions/{id}/history", h.HandleHistory)
}

// SessionView is the JSON representation of an open session.
type SessionView struct {
	ID          string              `json:"id"`
	Path        string              `json:"path"`
	SHA         string              `json:"sha"`
	Dirty       bool                `json:"dirty"`
	Stale       bool                `json:"stale"`
	Decorations []editor.Decoration `json:"decorations"`
	editor.Snapshot
}

func viewOf(doc *content.Document) SessionView {
	decorations := doc.Session.Decorations()
	if decorations == nil {
		decorations = []editor.Decoration{}
	}
	return SessionView{
		ID:          doc.Session.ID(),
		Path:        doc.Path,
		SHA:         doc.SHA(),
		Dirty:       doc.Dirty(),
		Stale:       doc.Stale(),
		Decorations: decorations,
		Snapshot:    doc.Session.Snapshot(),
	}
}

type openRequest struct {
	Path string `json:"path"`
}

type selectRequest struct {
	Ranges  []docmodel.Range `json:"ranges"`
	Primary int              `json:"primary"`
}

type typeRequest struct {
	Text string `json:"text"`
}

type commandRequest struct {
	Command string `json:"command"`
	Level   int    `json:"level,omitempty"`
}

type saveRequest struct {
	Message string `json:"message"`
}

type uploadResponse struct {
	UploadID    string `json:"upload_id"`
	Placeholder string `json:"placeholder"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
	SessionView
}

func (h *SessionHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errorAdapter.WriteErrorResponse(w, r, err)
}

func (h *SessionHandlers) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSONPretty(w, r, status, v); err != nil {
		h.fail(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

func (h *SessionHandlers) document(w http.ResponseWriter, r *http.Request) (*content.Document, bool) {
	doc, err := h.service.Get(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return doc, true
}

func (h *SessionHandlers) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Path == "" {
		h.fail(w, r, errors.ValidationError("path is required").Build())
		return
	}
	doc, err := h.service.Open(r.Context(), req.Path)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+doc.Session.ID())
	h.respond(w, r, http.StatusCreated, viewOf(doc))
}

func (h *SessionHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, map[string]any{"sessions": h.service.IDs()})
}

func (h *SessionHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, viewOf(doc))
}

func (h *SessionHandlers) HandleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Close(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sel := docmodel.Selection{Ranges: req.Ranges, Primary: req.Primary}
	if req.Primary < 0 || (len(req.Ranges) > 0 && req.Primary >= len(req.Ranges)) {
		h.fail(w, r, errors.ValidationError("primary index out of range").Build())
		return
	}
	if err := doc.Session.SetSelection(sel); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, viewOf(doc))
}

func (h *SessionHandlers) HandleType(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	var req typeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := doc.Session.ReplaceSelection(req.Text); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, viewOf(doc))
}

func (h *SessionHandlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd, err := editor.ParseCommand(req.Command, req.Level)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cmd.Name == editor.CmdImage {
		h.fail(w, r, errors.ValidationError("image commands are sent to the images endpoint").Build())
		return
	}
	if err := doc.Session.Dispatch(cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, viewOf(doc))
}

// HandleImage accepts a multipart upload in the "file" field and inserts it
// at the primary caret. With wait=true the response is sent once the upload
// has resolved.
func (h *SessionHandlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.fail(w, r, errors.ValidationError("invalid or oversized multipart upload").WithCause(err).Build())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, errors.ValidationError("multipart field \"file\" is required").WithCause(err).Build())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.fail(w, r, errors.ValidationError("failed to read upload").WithCause(err).Build())
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.fail(w, r, errors.ValidationError("image exceeds the upload size limit").
			WithContext("limit_bytes", h.maxUploadBytes).
			Build())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	upload, err := doc.Session.InsertImage(r.Context(), editor.ImageFile{
		Name:        name,
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := uploadResponse{UploadID: upload.ID(), Placeholder: upload.Placeholder()}
	status := http.StatusAccepted
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), h.uploadWait)
		_, _ = upload.Wait(ctx)
		cancel()
		select {
		case <-upload.Done():
			url, waitErr := upload.Wait(context.Background())
			status = http.StatusOK
			if waitErr != nil {
				resp.Error = errors.UserMessage(waitErr)
			} else {
				resp.URL = url
			}
		default:
			// Still uploading; the placeholder stays in the response.
		}
	}
	resp.SessionView = viewOf(doc)
	h.respond(w, r, status, resp)
}

func (h *SessionHandlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.service.Save(r.Context(), id, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, res)
}

func (h *SessionHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	out, err := preview.Render([]byte(doc.Session.CurrentText()), preview.Options{
		BaseURL:      h.previewBaseURL,
		DocumentPath: doc.Path,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Debug("Failed writing preview",
			logfields.SessionID(doc.Session.ID()),
			logfields.Path(doc.Path),
			logfields.Error(err))
	}
}

func (h *SessionHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.History(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, summary)
}
