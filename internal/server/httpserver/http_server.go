// Package httpserver wires the editing API, webhook receiver and monitoring
// endpoints into one HTTP server.
package httpserver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdcms/internal/content"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/server/handlers"
	smw "git.home.luguber.info/inful/mdcms/internal/server/middleware"
)

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	HealthPath  string
	MetricsPath string
	// Metrics serves MetricsPath; nil leaves the path unrouted.
	Metrics http.Handler

	WebhookPath    string
	WebhookSecret  string
	WebhookBranch  string
	PreviewBaseURL string
	MaxUploadBytes int64
	Version        string

	Logger *slog.Logger
}

// Server serves the editing API.
type Server struct {
	opts         Options
	logger       *slog.Logger
	errorAdapter *errors.HTTPErrorAdapter
	handler      http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	done     chan error
}

// New constructs the server and its routes.
func New(service *content.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HealthPath == "" {
		opts.HealthPath = "/healthz"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.WebhookPath == "" {
		opts.WebhookPath = "/webhooks/github"
	}

	s := &Server{
		opts:         opts,
		logger:       opts.Logger,
		errorAdapter: errors.NewHTTPErrorAdapter(opts.Logger),
	}

	mux := http.NewServeMux()
	handlers.NewSessionHandlers(service, s.errorAdapter, handlers.SessionOptions{
		PreviewBaseURL: opts.PreviewBaseURL,
		MaxUploadBytes: opts.MaxUploadBytes,
		Logger:         opts.Logger,
	}).Register(mux)

	webhooks := handlers.NewWebhookHandlers(service, s.errorAdapter, opts.WebhookSecret, opts.WebhookBranch, opts.Logger)
	mux.HandleFunc("POST "+opts.WebhookPath, webhooks.HandleGitHubWebhook)

	monitoring := handlers.NewMonitoringHandlers(service, opts.Version)
	mux.HandleFunc("GET "+opts.HealthPath, monitoring.HandleHealthCheck)
	if opts.Metrics != nil {
		mux.Handle("GET "+opts.MetricsPath, opts.Metrics)
	}

	s.handler = smw.Chain(opts.Logger, s.errorAdapter)(mux)
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listen address and serves in the background. Binding
// happens synchronously so an occupied port fails Start.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.InternalError("server already started").Build()
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to bind HTTP listener").
			WithContext("addr", s.opts.Addr).
			Build()
	}

	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.done = make(chan error, 1)
	go func(srv *http.Server, done chan<- error) {
		err := srv.Serve(ln)
		if stderrors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}(s.srv, s.done)

	s.logger.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "HTTP server shutdown failed").Build()
	}
	if err := <-done; err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "HTTP server stopped with error").Build()
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
