package config

import (
	"net/url"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

var defaultAppliers = []DefaultApplier{
	&storageDefaults{},
	&forgeDefaults{},
	&contentDefaults{},
	&editorDefaults{},
	&eventsDefaults{},
	&serverDefaults{},
	&monitoringDefaults{},
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

type storageDefaults struct{}

func (storageDefaults) Domain() string { return "storage" }

func (storageDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageGitHub
	}
	if cfg.Storage.Remote == "" {
		cfg.Storage.Remote = "origin"
	}
	if cfg.Storage.AuthorName == "" {
		cfg.Storage.AuthorName = "mdcms"
	}
	if cfg.Storage.AuthorEmail == "" {
		cfg.Storage.AuthorEmail = "mdcms@localhost"
	}
	return nil
}

type forgeDefaults struct{}

func (forgeDefaults) Domain() string { return "forge" }

func (forgeDefaults) ApplyDefaults(cfg *Config) error {
	f := &cfg.Forge
	if f.APIURL == "" {
		f.APIURL = "https://api.github.com"
	}
	if f.Branch == "" {
		f.Branch = "main"
	}
	if f.Timeout <= 0 {
		f.Timeout = 30 * time.Second
	}
	if f.RawBaseURL == "" && f.Owner != "" && f.Repo != "" {
		u, err := url.JoinPath("https://raw.githubusercontent.com", f.Owner, f.Repo, f.Branch)
		if err == nil {
			f.RawBaseURL = u
		}
	}
	return nil
}

type contentDefaults struct{}

func (contentDefaults) Domain() string { return "content" }

func (contentDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Content.MediaFolder == "" {
		cfg.Content.MediaFolder = "static/images"
	}
	return nil
}

type editorDefaults struct{}

func (editorDefaults) Domain() string { return "editor" }

func (editorDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Editor.IdleTimeout <= 0 {
		cfg.Editor.IdleTimeout = 2 * time.Hour
	}
	if cfg.Editor.SweepInterval <= 0 {
		cfg.Editor.SweepInterval = 5 * time.Minute
	}
	return nil
}

type eventsDefaults struct{}

func (eventsDefaults) Domain() string { return "events" }

func (eventsDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "mdcms.content"
	}
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = "MDCMS_CONTENT"
	}
	if cfg.Events.Timeout <= 0 {
		cfg.Events.Timeout = 5 * time.Second
	}
	return nil
}

type serverDefaults struct{}

func (serverDefaults) Domain() string { return "server" }

func (serverDefaults) ApplyDefaults(cfg *Config) error {
	s := &cfg.Server
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = 15 * time.Second
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 60 * time.Second
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = 10 << 20
	}
	return nil
}

type monitoringDefaults struct{}

func (monitoringDefaults) Domain() string { return "monitoring" }

func (monitoringDefaults) ApplyDefaults(cfg *Config) error {
	m := &cfg.Monitoring
	if m.Metrics.Path == "" {
		m.Metrics.Path = "/metrics"
	}
	if m.Health.Path == "" {
		m.Health.Path = "/healthz"
	}
	if m.Logging.Level == "" {
		m.Logging.Level = LogLevelInfo
	}
	if m.Logging.Format == "" {
		m.Logging.Format = LogFormatText
	}
	return nil
}
