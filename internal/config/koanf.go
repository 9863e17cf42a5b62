// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pathcredit/config.yaml",
	"/etc/pathcredit/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8480,
			Host:              "0.0.0.0",
			Timeout:           30 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			Environment:       "development",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Database: DatabaseConfig{
			Driver:    "duckdb",
			Path:      "/data/pathcredit.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Attribution: AttributionConfig{
			DefaultModel:           "shapley",
			Models:                 []string{"shapley", "markov"},
			ShapleyMaxTouchpoints:  10,
			MarkovMinSupport:       5,
			MonteCarloPermutations: 200,
			MonteCarloSeed:         42,
			DefaultWindowDays:      30,
			BatchWorkers:           8,
			JourneyCacheSize:       10000,
			JourneyCacheTTL:        5 * time.Minute,
		},
		Training: TrainingConfig{
			Enabled:        true,
			OnStartup:      true,
			Interval:       time.Hour,
			Lookback:       90 * 24 * time.Hour,
			MinJourneys:    10,
			JourneyLimit:   1000,
			MinTouchpoints: 2,
		},
		Events: EventsConfig{
			BufferSize:           1024,
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
			BreakerMaxFailures:   5,
			BreakerTimeout:       30 * time.Second,
			CloseTimeout:         30 * time.Second,
		},
	}
}

// Load loads configuration from defaults, the first config file found and
// environment variables, then validates it.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are settings given as comma-separated strings in the
// environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"attribution.models",
}

// processSliceFields splits comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	"db_driver":         "database.driver",
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"database_url":      "database.dsn",
	"db_max_open_conns": "database.max_open_conns",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"attribution_default_model": "attribution.default_model",
	"attribution_models":        "attribution.models",
	"attribution_window_days":   "attribution.default_window_days",
	"attribution_batch_workers": "attribution.batch_workers",
	"attribution_tenant_id":     "attribution.tenant_id",

	"shapley_max_touchpoints": "attribution.shapley_max_touchpoints",
	"markov_min_support":      "attribution.markov_min_support",
	"montecarlo_permutations": "attribution.montecarlo_permutations",
	"montecarlo_seed":         "attribution.montecarlo_seed",
	"journey_cache_size":      "attribution.journey_cache_size",
	"journey_cache_ttl":       "attribution.journey_cache_ttl",

	"training_enabled":      "training.enabled",
	"train_on_startup":      "training.on_startup",
	"train_interval":        "training.interval",
	"train_lookback":        "training.lookback",
	"train_min_journeys":    "training.min_journeys",
	"train_journey_limit":   "training.journey_limit",
	"train_min_touchpoints": "training.min_touchpoints",

	"events_buffer_size":          "events.buffer_size",
	"events_retry_count":          "events.retry_count",
	"events_retry_interval":       "events.retry_initial_interval",
	"events_breaker_max_failures": "events.breaker_max_failures",
	"events_breaker_timeout":      "events.breaker_timeout",
	"events_router_close_timeout": "events.close_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - TRAIN_INTERVAL -> training.interval
//
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
