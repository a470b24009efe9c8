// Package daemon assembles the long-running editing service from
// configuration: content store, journal, notifications, metrics, the idle
// session sweeper, the HTTP server and the configuration watcher.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdcms/internal/config"
	"git.home.luguber.info/inful/mdcms/internal/content"
	"git.home.luguber.info/inful/mdcms/internal/eventstore"
	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
	"git.home.luguber.info/inful/mdcms/internal/metrics"
	"git.home.luguber.info/inful/mdcms/internal/notify"
	"git.home.luguber.info/inful/mdcms/internal/server/httpserver"
	"git.home.luguber.info/inful/mdcms/internal/storage"
)

// Options carries process-level settings that do not live in the config file.
type Options struct {
	// ConfigPath enables hot reload when set.
	ConfigPath string
	// Level is adjusted on reload; nil disables log level reloads.
	Level   *slog.LevelVar
	Version string
	Logger  *slog.Logger
}

// Daemon owns every long-running component.
type Daemon struct {
	opts   Options
	logger *slog.Logger

	mu  sync.RWMutex
	cfg *config.Config

	store     storage.Store
	service   *content.Service
	journal   *eventstore.SQLiteStore
	publisher notify.Publisher
	sweeper   *content.Sweeper
	server    *httpserver.Server
	watcher   *ConfigWatcher
}

// New builds the daemon. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required").Build()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	d := &Daemon{opts: opts, logger: opts.Logger, cfg: cfg}

	store, err := NewStore(cfg, d.logger)
	if err != nil {
		return nil, err
	}
	d.store = store

	var journal eventstore.Store
	if cfg.Events.JournalPath != "" {
		if dir := filepath.Dir(cfg.Events.JournalPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, errors.WrapError(err, errors.CategoryFileSystem, "create journal directory").
					WithContext("path", dir).
					Build()
			}
		}
		d.journal, err = eventstore.NewSQLiteStore(cfg.Events.JournalPath)
		if err != nil {
			return nil, err
		}
		journal = d.journal
	}

	d.publisher = notify.NoopPublisher{}
	if cfg.Events.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(ctx, notify.Config{
			URL:     cfg.Events.NATSURL,
			Subject: cfg.Events.Subject,
			Stream:  cfg.Events.Stream,
			Timeout: cfg.Events.Timeout,
		}, d.logger)
		if err != nil {
			d.closeResources()
			return nil, err
		}
		d.publisher = pub
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Monitoring.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	d.service = content.NewService(store, content.Options{
		MediaFolder:        cfg.Content.MediaFolder,
		RefreshFingerprint: cfg.Content.RefreshFingerprint,
		IdleTimeout:        cfg.Editor.IdleTimeout,
		Logger:             d.logger,
		Recorder:           recorder,
		Journal:            journal,
		Publisher:          d.publisher,
	})
	if err := d.service.Rebuild(ctx); err != nil {
		d.logger.Warn("Failed to rebuild session history", slog.String("error", err.Error()))
	}

	d.sweeper, err = content.NewSweeper(d.service, cfg.Editor.SweepInterval)
	if err != nil {
		d.closeResources()
		return nil, err
	}

	d.server = httpserver.New(d.service, httpserver.Options{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		HealthPath:     cfg.Monitoring.Health.Path,
		MetricsPath:    cfg.Monitoring.Metrics.Path,
		Metrics:        metricsHandler,
		WebhookSecret:  cfg.Forge.WebhookSecret,
		WebhookBranch:  cfg.Forge.Branch,
		PreviewBaseURL: previewBaseURL(cfg),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Version:        opts.Version,
		Logger:         d.logger,
	})

	if opts.ConfigPath != "" {
		d.watcher, err = NewConfigWatcher(opts.ConfigPath, d, d.logger)
		if err != nil {
			d.closeResources()
			return nil, err
		}
	}
	return d, nil
}

func previewBaseURL(cfg *config.Config) string {
	if cfg.Storage.Backend == config.StorageGitHub {
		return cfg.Forge.RawBaseURL
	}
	return cfg.Storage.MediaBaseURL
}

// Service exposes the editing service.
func (d *Daemon) Service() *content.Service { return d.service }

// Addr is the bound HTTP address once started.
func (d *Daemon) Addr() string { return d.server.Addr() }

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Start binds the HTTP server and starts background work.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.server.Start(ctx); err != nil {
		return err
	}
	d.sweeper.Start()
	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			d.logger.Warn("Configuration hot reload disabled", slog.String("error", err.Error()))
		}
	}
	d.logger.Info("Daemon started", slog.String("addr", d.server.Addr()))
	return nil
}

// Stop shuts the server down, closes every session and releases resources.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	err := d.server.Shutdown(ctx)
	if stopErr := d.sweeper.Stop(); stopErr != nil {
		d.logger.Warn("Failed to stop sweeper", slog.String("error", stopErr.Error()))
	}
	if n := d.service.CloseAll(ctx, "shutdown"); n > 0 {
		d.logger.Info("Closed open sessions", slog.Int("count", n))
	}
	d.closeResources()
	return err
}

// ReloadConfig applies the hot-reloadable settings of cfg. Everything else
// requires a restart and is logged.
func (d *Daemon) ReloadConfig(_ context.Context, cfg *config.Config) error {
	d.mu.Lock()
	prev := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	next := cfg.Runtime()
	if d.opts.Level != nil && next.LogLevel != prev.Runtime().LogLevel {
		d.opts.Level.Set(next.LogLevel.SlogLevel())
		d.logger.Info("Log level changed", slog.String("level", string(next.LogLevel)))
	}
	if next.MediaFolder != prev.Runtime().MediaFolder {
		d.service.SetMediaFolder(next.MediaFolder)
		d.logger.Info("Media folder changed", slog.String("media_folder", next.MediaFolder))
	}
	if restartRequired(prev, cfg) {
		d.logger.Warn("Configuration changes outside logging and media folder require a restart")
	}
	return nil
}

func restartRequired(prev, next *config.Config) bool {
	return prev.Server != next.Server ||
		prev.Storage != next.Storage ||
		prev.Forge != next.Forge ||
		prev.Events != next.Events ||
		prev.Editor != next.Editor
}

func (d *Daemon) closeResources() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			d.logger.Warn("Failed to close publisher", slog.String("error", err.Error()))
		}
	}
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			d.logger.Warn("Failed to close journal", slog.String("error", err.Error()))
		}
	}
}

// NewStore builds the content store selected by the storage backend.
func NewStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageGitHub:
		return newGitHubStore(cfg, logger)
	case config.StorageGit:
		return newGitStore(cfg, logger)
	case config.StorageFS:
		return newFSStore(cfg)
	case config.StorageMemory:
		return storage.NewMemoryStore(cfg.Storage.MediaBaseURL), nil
	default:
		return nil, errors.ConfigError("unsupported storage backend").
			WithContext("backend", string(cfg.Storage.Backend)).
			Build()
	}
}
