// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and SCORELINE_* environment variables on top.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Store backends accepted by the store key.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the match store: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// SQLiteCacheSize bounds how many rebuilt timelines the sqlite store
	// keeps in memory. Zero disables the cache.
	SQLiteCacheSize int `koanf:"sqlite_cache_size"`

	// QueueSize bounds the generation job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of generation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many import digests are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps GET /matches?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// MaxStampCount caps the count a generation request may ask for.
	MaxStampCount int `koanf:"max_stamp_count"`

	// Generator defaults.
	StampCount             int     `koanf:"stamp_count"`
	MaxOffsetStep          int     `koanf:"max_offset_step"`
	ScoreChangeProbability float64 `koanf:"score_change_probability"`
	HomeProbability        float64 `koanf:"home_probability"`
	Seed                   int64   `koanf:"seed"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		Store:                  StoreMemory,
		SQLitePath:             "scoreline.db",
		SQLiteCacheSize:        16,
		QueueSize:              1024,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             50_000,
		MaxListLimit:           500,
		MaxStampCount:          1_000_000,
		StampCount:             50_000,
		MaxOffsetStep:          3,
		ScoreChangeProbability: 0.0001,
		HomeProbability:        0.45,
	}
}

// Validate checks the values Load cannot express through types alone.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.Store)
	case c.Store == StoreSQLite && strings.TrimSpace(c.SQLitePath) == "":
		return fmt.Errorf("%w: sqlite_path is required for the sqlite store", ErrInvalidConfig)
	case c.SQLiteCacheSize < 0:
		return fmt.Errorf("%w: sqlite_cache_size must not be negative", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxListLimit < 1:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	case c.StampCount < 0 || c.StampCount > c.MaxStampCount:
		return fmt.Errorf("%w: stamp_count must be in [0, max_stamp_count]", ErrInvalidConfig)
	case c.MaxOffsetStep < 1:
		return fmt.Errorf("%w: max_offset_step must be positive", ErrInvalidConfig)
	case c.ScoreChangeProbability < 0 || c.ScoreChangeProbability > 1:
		return fmt.Errorf("%w: score_change_probability must be in [0, 1]", ErrInvalidConfig)
	case c.HomeProbability < 0 || c.HomeProbability > 1:
		return fmt.Errorf("%w: home_probability must be in [0, 1]", ErrInvalidConfig)
	}
	return nil
}
