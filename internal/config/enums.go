package config

import (
	"git.home.luguber.info/inful/mdcms/internal/foundation/normalization"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, "")

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, "")

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// StorageBackend selects where content lives.
type StorageBackend string

const (
	StorageGitHub StorageBackend = "github"
	StorageGit    StorageBackend = "git"
	StorageFS     StorageBackend = "fs"
	StorageMemory StorageBackend = "memory"
)

var storageBackendNormalizer = normalization.NewNormalizer(map[string]StorageBackend{
	"github":     StorageGitHub,
	"git":        StorageGit,
	"local-git":  StorageGit,
	"fs":         StorageFS,
	"filesystem": StorageFS,
	"memory":     StorageMemory,
}, "")

// NormalizeStorageBackend returns the backend for raw, or "" when unknown.
func NormalizeStorageBackend(raw string) StorageBackend {
	return storageBackendNormalizer.Normalize(raw)
}

// StorageBackendKeys lists the accepted backend spellings.
func StorageBackendKeys() []string { return storageBackendNormalizer.ValidKeys() }
