// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	db, err := database.New(&cfg.Database)
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Logging     LoggingConfig     `koanf:"logging"`
	Attribution AttributionConfig `koanf:"attribution"`
	Training    TrainingConfig    `koanf:"training"`
	Events      EventsConfig      `koanf:"events"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
//   - ENVIRONMENT: development, staging, production
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig selects and tunes the attribution store.
//
// Environment Variables:
//   - DB_DRIVER: duckdb or postgres (default: duckdb)
//   - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
//   - DATABASE_URL: PostgreSQL DSN, required when DB_DRIVER=postgres
type DatabaseConfig struct {
	// Driver is the store backend: duckdb or postgres.
	// Default: duckdb
	Driver string `koanf:"driver"`

	// Path is the DuckDB file, or ":memory:".
	// Default: /data/pathcredit.duckdb
	Path string `koanf:"path"`

	// DSN is the PostgreSQL connection string.
	DSN string `koanf:"dsn"`

	// MaxMemory caps DuckDB memory usage.
	// Default: 1GB
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// MaxOpenConns bounds the connection pool. 0 uses runtime.NumCPU().
	MaxOpenConns int `koanf:"max_open_conns"`

	// SkipIndexes skips secondary index creation (fast test setup).
	SkipIndexes bool `koanf:"skip_indexes"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// AttributionConfig configures the models and the tracker.
type AttributionConfig struct {
	// DefaultModel scores requests that name no model.
	// Default: shapley
	DefaultModel string `koanf:"default_model"`

	// Models are scored for every recorded conversion.
	// Default: shapley, markov
	Models []string `koanf:"models"`

	// ShapleyMaxTouchpoints caps the touchpoints Shapley scores exactly.
	// Default: 10
	ShapleyMaxTouchpoints int `koanf:"shapley_max_touchpoints"`

	// MarkovMinSupport drops transitions observed fewer times.
	// Default: 5
	MarkovMinSupport int `koanf:"markov_min_support"`

	// MonteCarloPermutations is the number of sampled orderings.
	// Default: 200
	MonteCarloPermutations int `koanf:"montecarlo_permutations"`

	// MonteCarloSeed seeds the permutation sampler.
	// Default: 42
	MonteCarloSeed int64 `koanf:"montecarlo_seed"`

	// DefaultWindowDays applies to conversions submitted without a window.
	// Default: 30
	DefaultWindowDays int `koanf:"default_window_days"`

	// BatchWorkers bounds concurrent scoring in batch analysis.
	// Default: 8
	BatchWorkers int `koanf:"batch_workers"`

	// JourneyCacheSize is the number of open journeys kept in memory.
	// Default: 10000
	JourneyCacheSize int `koanf:"journey_cache_size"`

	// JourneyCacheTTL bounds how long a cached open journey is trusted.
	// Default: 5m
	JourneyCacheTTL time.Duration `koanf:"journey_cache_ttl"`

	// TenantID is stamped on journeys, results and model states.
	TenantID string `koanf:"tenant_id"`

	// Costs fills cost, ROI and ROAS on every scored result.
	// Config file only; empty by default.
	Costs CostsConfig `koanf:"costs"`
}

// CostsConfig is marketing spend for the reporting period.
//
// Example:
//
//	attribution:
//	  costs:
//	    platforms:
//	      meta: 1200
//	      google_search: 800
//	    campaigns:
//	      spring-sale: 450
type CostsConfig struct {
	// Platforms maps platform names to spend.
	Platforms map[string]float64 `koanf:"platforms"`

	// Campaigns maps campaign ids to spend.
	Campaigns map[string]float64 `koanf:"campaigns"`
}

// TrainingConfig controls periodic Markov retraining.
type TrainingConfig struct {
	// Enabled runs the periodic trainer.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// OnStartup trains once before the first interval elapses.
	// Default: true
	OnStartup bool `koanf:"on_startup"`

	// Interval between training runs.
	// Default: 1h
	Interval time.Duration `koanf:"interval"`

	// Lookback limits training to journeys converted within this window.
	// Default: 90 days
	Lookback time.Duration `koanf:"lookback"`

	// MinJourneys is the fewest converted journeys a run accepts.
	// Default: 10
	MinJourneys int `koanf:"min_journeys"`

	// JourneyLimit caps the journeys loaded per run.
	// Default: 1000
	JourneyLimit int `koanf:"journey_limit"`

	// MinTouchpoints skips shorter journeys.
	// Default: 2
	MinTouchpoints int `koanf:"min_touchpoints"`
}

// EventsConfig configures the in-process conversion pipeline.
type EventsConfig struct {
	// BufferSize is the gochannel output buffer per subscriber.
	// Default: 1024
	BufferSize int64 `koanf:"buffer_size"`

	// RetryCount is the handler retry budget per message.
	// Default: 3
	RetryCount int `koanf:"retry_count"`

	// RetryInitialInterval is the first retry backoff.
	// Default: 100ms
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`

	// BreakerMaxFailures opens the result-writer breaker after this many
	// consecutive failures.
	// Default: 5
	BreakerMaxFailures uint32 `koanf:"breaker_max_failures"`

	// BreakerTimeout is how long the breaker stays open.
	// Default: 30s
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`

	// CloseTimeout bounds router shutdown.
	// Default: 30s
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
