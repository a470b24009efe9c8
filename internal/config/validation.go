package config

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/mdcms/internal/foundation/errors"
)

// ValidateConfig checks cross-field constraints after defaults are applied.
func ValidateConfig(cfg *Config) error {
	validators := []func(*Config) error{
		validateStorage,
		validateForge,
		validateServer,
		validateMonitoring,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateStorage(cfg *Config) error {
	switch cfg.Storage.Backend {
	case StorageGitHub, StorageMemory:
		return nil
	case StorageGit, StorageFS:
		if strings.TrimSpace(cfg.Storage.Root) == "" {
			return errors.ConfigError("storage.root is required for local backends").
				WithContext("backend", string(cfg.Storage.Backend)).
				Build()
		}
		return nil
	default:
		return errors.ConfigError("unknown storage.backend").
			WithContext("backend", string(cfg.Storage.Backend)).
			WithContext("valid", StorageBackendKeys()).
			Build()
	}
}

func validateForge(cfg *Config) error {
	if cfg.Storage.Backend != StorageGitHub {
		return nil
	}
	f := cfg.Forge
	if f.Owner == "" || f.Repo == "" {
		return errors.ConfigError("forge.owner and forge.repo are required for the github backend").Build()
	}
	if f.Token == "" {
		return errors.ConfigError("forge.token (or GITHUB_TOKEN) is required for the github backend").Build()
	}
	if _, err := url.ParseRequestURI(f.APIURL); err != nil {
		return errors.ConfigError("forge.api_url is not a valid URL").
			WithCause(err).
			WithContext("api_url", f.APIURL).
			Build()
	}
	return nil
}

func validateServer(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.ConfigError("server.addr cannot be empty").Build()
	}
	return nil
}

func validateMonitoring(cfg *Config) error {
	m := cfg.Monitoring
	for field, p := range map[string]string{"monitoring.metrics.path": m.Metrics.Path, "monitoring.health.path": m.Health.Path} {
		if !strings.HasPrefix(p, "/") {
			return errors.ConfigError("monitoring paths must start with /").
				WithContext("field", field).
				WithContext("path", p).
				Build()
		}
	}
	return nil
}
