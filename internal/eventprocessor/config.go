// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// Config configures the conversion pipeline.
type Config struct {
	// BufferSize is the gochannel output buffer per subscriber.
	// Default: 1024.
	BufferSize int64

	// RetryCount is the handler retry budget per message.
	// Default: 3.
	RetryCount int

	// RetryInitialInterval is the first retry backoff; later backoffs double.
	// Default: 100ms.
	RetryInitialInterval time.Duration

	// RetryMaxInterval caps the retry backoff.
	// Default: 5s.
	RetryMaxInterval time.Duration

	// BreakerMaxFailures opens the result-writer breaker after this many
	// consecutive failures.
	// Default: 5.
	BreakerMaxFailures uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	// Default: 30s.
	BreakerTimeout time.Duration

	// CloseTimeout bounds router shutdown.
	// Default: 30s.
	CloseTimeout time.Duration

	// Models are scored for every conversion. Empty scores with every
	// registered model.
	Models []attribution.ModelType
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:           1024,
		RetryCount:           3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		BreakerMaxFailures:   5,
		BreakerTimeout:       30 * time.Second,
		CloseTimeout:         30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: buffer size must not be negative", ErrInvalidConfig)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("%w: retry count must not be negative", ErrInvalidConfig)
	}
	if c.BreakerMaxFailures == 0 {
		return fmt.Errorf("%w: breaker max failures must be at least 1", ErrInvalidConfig)
	}
	for _, m := range c.Models {
		if !m.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, attribution.ErrUnknownModel, m)
		}
	}
	return nil
}
