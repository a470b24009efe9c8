package config

import (
	"log/slog"
)

// Runtime is the subset of settings that can change without a restart.
type Runtime struct {
	LogLevel    LogLevel
	MediaFolder string
}

// Runtime extracts the hot-reloadable settings.
func (c *Config) Runtime() Runtime {
	return Runtime{
		LogLevel:    c.Monitoring.Logging.Level,
		MediaFolder: c.Content.MediaFolder,
	}
}

// SlogLevel maps a LogLevel to slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
