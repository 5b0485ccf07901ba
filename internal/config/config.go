package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, parsed from the environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`

	// StorageBackend selects the progress store: "redis" or "sqlite".
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`
	RedisURL       string `env:"REDIS_URL" envDefault:"localhost:6379"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"./data/progress.db"`

	// DataDir is the root for filesystem-backed story files.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	LogLevel slog.Level `env:"-"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	switch strings.ToLower(cfg.StorageBackend) {
	case "redis", "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q (supported: redis, sqlite)", cfg.StorageBackend)
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
