package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments and warnings from normalization.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated fields before defaults apply.
// Unknown values are reset to empty so the defaults pass fills them.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	normalizeStorage(&c.Storage, res)
	normalizeLogging(&c.Monitoring.Logging, res)
	c.Content.MediaFolder = strings.Trim(strings.TrimSpace(c.Content.MediaFolder), "/")
	return res
}

func normalizeStorage(s *StorageConfig, res *NormalizationResult) {
	raw := string(s.Backend)
	if strings.TrimSpace(raw) == "" {
		return
	}
	if b := NormalizeStorageBackend(raw); b != "" {
		if s.Backend != b {
			res.Warnings = append(res.Warnings, warnChanged("storage.backend", s.Backend, b))
			s.Backend = b
		}
		return
	}
	// Validation reports unknown backends; keep the raw value for the message.
}

func normalizeLogging(l *MonitoringLogging, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if strings.TrimSpace(string(l.Level)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}
	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", l.Format, f))
			l.Format = f
		}
	} else if strings.TrimSpace(string(l.Format)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
