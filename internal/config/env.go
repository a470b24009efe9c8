package config

import (
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order. godotenv never overrides variables already
// present in the process environment, so the process always wins and the
// first file wins over later ones.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every existing env file and returns the ones loaded.
func loadEnvFiles() []string {
	var loaded []string
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			loaded = append(loaded, path)
		}
	}
	return loaded
}

// applyEnvOverrides fills secrets from well-known variables when the file
// leaves them empty.
func applyEnvOverrides(cfg *Config) {
	if cfg.Forge.Token == "" {
		cfg.Forge.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Forge.WebhookSecret == "" {
		cfg.Forge.WebhookSecret = os.Getenv("GITHUB_WEBHOOK_SECRET")
	}
	if cfg.Events.NATSURL == "" {
		cfg.Events.NATSURL = os.Getenv("NATS_URL")
	}
}
