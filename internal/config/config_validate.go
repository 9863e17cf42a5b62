// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package config

import (
	"fmt"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateAttribution(); err != nil {
		return err
	}

	if err := c.validateTraining(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validDrivers defines the supported store backends
var validDrivers = map[string]bool{
	"duckdb":   true,
	"postgres": true,
}

func (c *Config) validateDatabase() error {
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("DB_DRIVER must be one of: duckdb, postgres")
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
	}
	if c.Database.Driver == "duckdb" && c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required when DB_DRIVER=duckdb")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

// validModels mirrors the attribution model types.
var validModels = map[string]bool{
	"shapley":            true,
	"markov":             true,
	"linear":             true,
	"montecarlo_shapley": true,
}

func (c *Config) validateAttribution() error {
	a := &c.Attribution
	if !validModels[a.DefaultModel] {
		return fmt.Errorf("ATTRIBUTION_DEFAULT_MODEL must be one of: shapley, markov, linear, montecarlo_shapley")
	}
	for _, m := range a.Models {
		if !validModels[m] {
			return fmt.Errorf("ATTRIBUTION_MODELS contains unknown model %q", m)
		}
	}
	if a.ShapleyMaxTouchpoints < 2 {
		return fmt.Errorf("SHAPLEY_MAX_TOUCHPOINTS must be at least 2")
	}
	if a.MarkovMinSupport < 1 {
		return fmt.Errorf("MARKOV_MIN_SUPPORT must be at least 1")
	}
	if a.MonteCarloPermutations < 1 {
		return fmt.Errorf("MONTECARLO_PERMUTATIONS must be at least 1")
	}
	if a.DefaultWindowDays < 1 {
		return fmt.Errorf("ATTRIBUTION_WINDOW_DAYS must be at least 1")
	}
	if a.BatchWorkers < 1 {
		return fmt.Errorf("ATTRIBUTION_BATCH_WORKERS must be at least 1")
	}
	for name, spend := range a.Costs.Platforms {
		if spend < 0 {
			return fmt.Errorf("attribution.costs.platforms.%s must not be negative", name)
		}
	}
	for id, spend := range a.Costs.Campaigns {
		if spend < 0 {
			return fmt.Errorf("attribution.costs.campaigns.%s must not be negative", id)
		}
	}
	return nil
}

func (c *Config) validateTraining() error {
	if !c.Training.Enabled {
		return nil
	}
	if c.Training.Interval < time.Minute {
		return fmt.Errorf("TRAIN_INTERVAL must be at least 1m")
	}
	if c.Training.MinJourneys < 1 {
		return fmt.Errorf("TRAIN_MIN_JOURNEYS must be at least 1")
	}
	if c.Training.JourneyLimit < c.Training.MinJourneys {
		return fmt.Errorf("TRAIN_JOURNEY_LIMIT must be at least TRAIN_MIN_JOURNEYS")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must not be negative")
	}
	if c.Events.BreakerMaxFailures == 0 {
		return fmt.Errorf("EVENTS_BREAKER_MAX_FAILURES must be at least 1")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
