// Package config loads ledger configuration from an optional YAML file and
// LEDGER_* environment variables. Environment values win over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ledger/internal/access"
)

// DefaultDatabase is the database path used when none is configured.
const DefaultDatabase = "ledger.db"

// Config holds process-wide settings.
type Config struct {
	// Database is the SQLite file path. ":memory:" selects a private
	// in-memory database.
	Database string `yaml:"database" env:"LEDGER_DB"`

	// MaxOpenConns caps the SQLite connection pool. Zero leaves it
	// unbounded, so every read of an admission batch gets its own
	// connection. A positive cap serializes reads beyond it.
	MaxOpenConns int `yaml:"max_open_conns" env:"LEDGER_MAX_OPEN_CONNS"`

	// Policy is the write admission policy: "relaxed" or "exclusive".
	Policy string `yaml:"policy" env:"LEDGER_POLICY"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LEDGER_LOG_LEVEL"`

	// OTelEndpoint is the OTLP/HTTP trace endpoint. Empty disables tracing.
	OTelEndpoint string `yaml:"otel_endpoint" env:"LEDGER_OTEL_ENDPOINT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DefaultDatabase,
		Policy:   access.PolicyRelaxed.String(),
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes YAML with strict field checking so a typo such as
// "polcy:" fails loudly instead of being ignored.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks field values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("%w: database is required", ErrInvalidConfig)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("%w: max_open_conns must not be negative, got %d", ErrInvalidConfig, c.MaxOpenConns)
	}
	if _, err := c.AccessPolicy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// InMemory reports whether the configured database is in-memory.
func (c Config) InMemory() bool {
	return c.Database == ":memory:"
}

// AccessPolicy returns the parsed admission policy.
func (c Config) AccessPolicy() (access.Policy, error) {
	return access.ParsePolicy(c.Policy)
}

// SlogLevel returns the parsed log level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}
