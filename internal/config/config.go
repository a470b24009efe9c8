// Package config loads the mdcms YAML configuration: environment expansion,
// .env loading, enum normalization, per-domain defaults and validation.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// Config is the complete service configuration.
type Config struct {
	Forge      ForgeConfig      `yaml:"forge"`
	Storage    StorageConfig    `yaml:"storage"`
	Content    ContentConfig    `yaml:"content"`
	Editor     EditorConfig     `yaml:"editor"`
	Events     EventsConfig     `yaml:"events"`
	Server     ServerConfig     `yaml:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ForgeConfig configures the GitHub repository holding the content.
type ForgeConfig struct {
	APIURL         string        `yaml:"api_url"`
	Owner          string        `yaml:"owner"`
	Repo           string        `yaml:"repo"`
	Branch         string        `yaml:"branch"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
	CommitterName  string        `yaml:"committer_name"`
	CommitterEmail string        `yaml:"committer_email"`
	WebhookSecret  string        `yaml:"webhook_secret"`
	// RawBaseURL is where preview images resolve, defaulting to
	// raw.githubusercontent.com for the configured repository and branch.
	RawBaseURL string `yaml:"raw_base_url"`
}

// StorageConfig selects and configures the content store backend.
type StorageConfig struct {
	Backend      StorageBackend `yaml:"backend"`
	Root         string         `yaml:"root"`
	Init         bool           `yaml:"init"`
	Push         bool           `yaml:"push"`
	Remote       string         `yaml:"remote"`
	AuthorName   string         `yaml:"author_name"`
	AuthorEmail  string         `yaml:"author_email"`
	MediaBaseURL string         `yaml:"media_base_url"`
}

// ContentConfig controls how files are edited and saved.
type ContentConfig struct {
	MediaFolder        string `yaml:"media_folder"`
	RefreshFingerprint bool   `yaml:"refresh_fingerprint"`
}

// EditorConfig controls editing session lifetime.
type EditorConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// EventsConfig configures the edit journal and change notifications.
type EventsConfig struct {
	// JournalPath is the SQLite database file; empty disables the journal.
	JournalPath string `yaml:"journal_path"`
	// NATSURL enables JetStream notifications when set.
	NATSURL string        `yaml:"nats_url"`
	Subject string        `yaml:"subject"`
	Stream  string        `yaml:"stream"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP editing API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MonitoringHealth struct {
	Path string `yaml:"path"`
}

type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads, normalizes, defaults and validates a configuration file.
// Variables from .env files are loaded first; ${VAR} references in the file
// are expanded from the environment.
func Load(configPath string) (*Config, error) {
	if loaded := loadEnvFiles(); len(loaded) > 0 {
		slog.Debug("Loaded environment files", slog.Any("files", loaded))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse builds a validated configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").Build()
	}

	res := NormalizeConfig(&cfg)
	for _, w := range res.Warnings {
		slog.Warn("Configuration normalized", slog.String("detail", w))
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration for the in-memory backend,
// used when no configuration file is given.
func Default() *Config {
	cfg := &Config{Storage: StorageConfig{Backend: StorageMemory}}
	_ = applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}
