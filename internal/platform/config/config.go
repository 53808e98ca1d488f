// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local .env file is
loaded first when present.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Optional backends:

  - DATABASE_URL unset: rewrite history is not persisted.
  - REDIS_URL unset: the API key lives in process memory only.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the comic rewriter.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL), optional
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis), optional
	RedisURL string `env:"REDIS_URL"`

	// Rewrite model
	APIKey        string `env:"API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL"    envDefault:"gemini-2.5-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`

	// Processing queue
	DefaultLanguage  string        `env:"DEFAULT_LANGUAGE"   envDefault:"vi"`
	QueuePacingDelay time.Duration `env:"QUEUE_PACING_DELAY" envDefault:"1s"`
	RewriteTimeout   time.Duration `env:"REWRITE_TIMEOUT"    envDefault:"120s"`

	// Folder upload limit in bytes
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"536870912"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	// Real environment variables win over .env values.
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.QueuePacingDelay < 0 {
		return nil, fmt.Errorf("config: QUEUE_PACING_DELAY must not be negative")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

// Origins returns the trimmed, non-empty entries of EXTRA_ORIGINS.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
