// Package config loads the bookstore CLI settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the CLI settings. Command-line flags override these values.
type Config struct {
	// Name of a new store; empty uses the seed's name.
	Name     string `env:"BOOKSTORE_NAME"`
	DataFile string `env:"BOOKSTORE_DATA_FILE" envDefault:"bookstore.json"`
	// Format is json, xml or sqlite; empty picks by the data file extension.
	Format   string `env:"BOOKSTORE_FORMAT"`
	SeedFile string `env:"BOOKSTORE_SEED_FILE"`
	Demo     bool   `env:"BOOKSTORE_DEMO"      envDefault:"true"`
	LogLevel string `env:"BOOKSTORE_LOG_LEVEL" envDefault:"warn"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelWarn, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
