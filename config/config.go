// Package config loads the SDK and CLI configuration from environment
// variables, with an optional .env file for development.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the configuration surface of the client core. Only the API
// base URL is required; everything else has a sensible default.
type Config struct {
	// APIBaseURL is the root of the resource API, e.g. "https://api.example.com".
	APIBaseURL string
	// CredentialPath is the BBolt database holding the durable credential.
	CredentialPath string
	// ListenAddr is where the serve command binds the reference server.
	ListenAddr string
	// LogLevel: debug, info, warn, error (default: info).
	LogLevel slog.Level
	// LogFormat: text or json (default: text).
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored but never overrides real environment
// variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL: getEnv("DESKHAND_API_URL", "http://localhost:8787"),
		ListenAddr: getEnv("DESKHAND_LISTEN_ADDR", ":8787"),
		LogLevel:   parseLevel(os.Getenv("DESKHAND_LOG_LEVEL")),
		LogFormat:  strings.ToLower(getEnv("DESKHAND_LOG_FORMAT", "text")),
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("DESKHAND_API_URL %q is not a valid URL", cfg.APIBaseURL)
	}

	cfg.CredentialPath = os.Getenv("DESKHAND_CREDENTIAL_FILE")
	if cfg.CredentialPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.CredentialPath = filepath.Join(home, ".deskhand", "credentials.db")
	}

	return cfg, nil
}

// NewLogger builds a structured logger from the configured level and
// format.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
