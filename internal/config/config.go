// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds the runtime configuration for the WAP ingestion engine.
// Branch naming and tier policies are explicit values handed to the
// orchestrator at construction, never process-wide mutable state.
type Config struct {
	// Actor prefixes every isolation branch name. Defaults to the OS user
	// when unset.
	Actor string
	// Trunk is the stable branch consumers read from (default "main").
	Trunk string

	// DataDir is where the DuckDB store keeps branch databases.
	DataDir string
	// MetaDBPath is the SQLite file for the audit metastore.
	MetaDBPath string

	// S3 probe settings. Probing is optional: when disabled, source
	// locations are trusted and the first store error surfaces at import.
	ProbeSources bool
	S3KeyID      *string
	S3Secret     *string
	S3Endpoint   *string
	S3Region     *string

	// StoreRPS rate-limits mutating store calls during bulk ingestion;
	// zero disables throttling.
	StoreRPS   float64
	StoreBurst int

	// Concurrency bounds parallel work orders in RunAll.
	Concurrency int

	LogLevel string // debug, info, warn, error (default "info")

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// HasS3Config returns true if all fields required for the S3 prober are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil && c.S3Region != nil
}

// LoadFromEnv loads configuration from environment variables. S3 variables
// are optional; the engine runs without them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Actor:      os.Getenv("WAP_ACTOR"),
		Trunk:      os.Getenv("WAP_TRUNK"),
		DataDir:    os.Getenv("WAP_DATA_DIR"),
		MetaDBPath: os.Getenv("WAP_META_DB_PATH"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
	}

	if strings.EqualFold(os.Getenv("WAP_PROBE_SOURCES"), "true") {
		cfg.ProbeSources = true
	}

	if v := os.Getenv("WAP_STORE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StoreRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid WAP_STORE_RPS %q", v))
		}
	}
	if v := os.Getenv("WAP_STORE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StoreBurst = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid WAP_STORE_BURST %q", v))
		}
	}
	if v := os.Getenv("WAP_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid WAP_CONCURRENCY %q", v))
		}
	}

	// S3 fields are optional; only set if present.
	if v := os.Getenv("KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.S3Region = &v
	}

	// Defaults.
	if cfg.Actor == "" {
		if u := os.Getenv("USER"); u != "" {
			cfg.Actor = u
		} else {
			cfg.Actor = "lakewap"
		}
	}
	if cfg.Trunk == "" {
		cfg.Trunk = "main"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "lakewap_data"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "lakewap_meta.sqlite"
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	if cfg.ProbeSources && !cfg.HasS3Config() {
		return nil, fmt.Errorf("WAP_PROBE_SOURCES requires KEY_ID, SECRET, and REGION")
	}

	return cfg, nil
}
