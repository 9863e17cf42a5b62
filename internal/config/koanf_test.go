// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Database.Path != "/data/pathcredit.duckdb" {
		t.Errorf("Database.Path = %q, want /data/pathcredit.duckdb", cfg.Database.Path)
	}
	if cfg.Server.Port != 8480 {
		t.Errorf("Server.Port = %d, want 8480", cfg.Server.Port)
	}
	if cfg.Attribution.DefaultModel != "shapley" {
		t.Errorf("Attribution.DefaultModel = %q, want shapley", cfg.Attribution.DefaultModel)
	}
	if cfg.Attribution.ShapleyMaxTouchpoints != 10 {
		t.Errorf("Attribution.ShapleyMaxTouchpoints = %d, want 10", cfg.Attribution.ShapleyMaxTouchpoints)
	}
	if cfg.Attribution.MarkovMinSupport != 5 {
		t.Errorf("Attribution.MarkovMinSupport = %d, want 5", cfg.Attribution.MarkovMinSupport)
	}
	if cfg.Attribution.DefaultWindowDays != 30 {
		t.Errorf("Attribution.DefaultWindowDays = %d, want 30", cfg.Attribution.DefaultWindowDays)
	}
	if cfg.Training.MinJourneys != 10 || cfg.Training.JourneyLimit != 1000 || cfg.Training.MinTouchpoints != 2 {
		t.Errorf("Training = %+v, want min 10, limit 1000, min touchpoints 2", cfg.Training)
	}
	if cfg.Events.BreakerMaxFailures != 5 {
		t.Errorf("Events.BreakerMaxFailures = %d, want 5", cfg.Events.BreakerMaxFailures)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DUCKDB_PATH", "database.path"},
		{"DB_DRIVER", "database.driver"},
		{"DATABASE_URL", "database.dsn"},
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "server.cors_origins"},
		{"LOG_LEVEL", "logging.level"},
		{"ATTRIBUTION_MODELS", "attribution.models"},
		{"SHAPLEY_MAX_TOUCHPOINTS", "attribution.shapley_max_touchpoints"},
		{"TRAIN_INTERVAL", "training.interval"},
		{"EVENTS_BREAKER_TIMEOUT", "events.breaker_timeout"},

		// Unmapped variables are skipped
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("ATTRIBUTION_MODELS", "shapley, linear ,markov")
	t.Setenv("TRAIN_INTERVAL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want :memory:", cfg.Database.Path)
	}
	if got := strings.Join(cfg.Attribution.Models, ","); got != "shapley,linear,markov" {
		t.Errorf("Attribution.Models = %v, want [shapley linear markov]", cfg.Attribution.Models)
	}
	if cfg.Training.Interval != 30*time.Minute {
		t.Errorf("Training.Interval = %v, want 30m", cfg.Training.Interval)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("Server.CORSOrigins = %v, want 2 origins", cfg.Server.CORSOrigins)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  driver: postgres
  dsn: postgres://pathcredit@localhost/pathcredit
attribution:
  default_model: markov
  markov_min_support: 3
  costs:
    platforms:
      meta: 1200
      google_search: 800.5
    campaigns:
      spring-sale: 450
training:
  min_journeys: 25
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN == "" {
		t.Errorf("Database = %+v, want postgres with dsn", cfg.Database)
	}
	if cfg.Attribution.DefaultModel != "markov" || cfg.Attribution.MarkovMinSupport != 3 {
		t.Errorf("Attribution = %+v", cfg.Attribution)
	}
	costs := cfg.Attribution.Costs
	if costs.Platforms["meta"] != 1200 || costs.Platforms["google_search"] != 800.5 || costs.Campaigns["spring-sale"] != 450 {
		t.Errorf("Attribution.Costs = %+v", costs)
	}
	if cfg.Training.MinJourneys != 25 {
		t.Errorf("Training.MinJourneys = %d, want 25", cfg.Training.MinJourneys)
	}
	// Unset keys keep their defaults
	if cfg.Attribution.ShapleyMaxTouchpoints != 10 {
		t.Errorf("Attribution.ShapleyMaxTouchpoints = %d, want default 10", cfg.Attribution.ShapleyMaxTouchpoints)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile("/non/existent/config.yaml"); err == nil {
		t.Error("LoadFile() with a missing file should fail")
	}
}

func TestFindConfigFile_EnvPath(t *testing.T) {
	dir := t.TempDir()
	customPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(customPath, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, customPath)
	if got := findConfigFile(); got != customPath {
		t.Errorf("findConfigFile() = %q, want %q", got, customPath)
	}

	t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
	if got := findConfigFile(); got == "/non/existent/config.yaml" {
		t.Error("findConfigFile() returned a path that does not exist")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "DATABASE_URL"},
		{"unknown default model", func(c *Config) { c.Attribution.DefaultModel = "first_touch" }, "ATTRIBUTION_DEFAULT_MODEL"},
		{"unknown model in list", func(c *Config) { c.Attribution.Models = []string{"shapley", "u_shaped"} }, "ATTRIBUTION_MODELS"},
		{"shapley cap too small", func(c *Config) { c.Attribution.ShapleyMaxTouchpoints = 1 }, "SHAPLEY_MAX_TOUCHPOINTS"},
		{"window zero", func(c *Config) { c.Attribution.DefaultWindowDays = 0 }, "ATTRIBUTION_WINDOW_DAYS"},
		{"negative platform spend", func(c *Config) {
			c.Attribution.Costs.Platforms = map[string]float64{"meta": -1}
		}, "attribution.costs.platforms.meta"},
		{"negative campaign spend", func(c *Config) {
			c.Attribution.Costs.Campaigns = map[string]float64{"spring": -5}
		}, "attribution.costs.campaigns.spring"},
		{"limit below minimum", func(c *Config) { c.Training.JourneyLimit = 5 }, "TRAIN_JOURNEY_LIMIT"},
		{"training disabled skips checks", func(c *Config) {
			c.Training.Enabled = false
			c.Training.Interval = 0
		}, ""},
		{"rate limit window", func(c *Config) { c.Server.RateLimitWindow = time.Millisecond }, "RATE_LIMIT_WINDOW"},
		{"breaker zero", func(c *Config) { c.Events.BreakerMaxFailures = 0 }, "EVENTS_BREAKER_MAX_FAILURES"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	cfg := defaultConfig()
	if cfg.IsProduction() {
		t.Error("IsProduction() = true for development")
	}
	cfg.Server.Environment = "production"
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false for production")
	}
}
