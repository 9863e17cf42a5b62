// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// TrainerConfig schedules periodic Markov retraining.
type TrainerConfig struct {
	// Interval between runs.
	// Default: 1h.
	Interval time.Duration

	// Lookback limits each run to journeys touched within this window.
	// Zero trains on all stored journeys.
	Lookback time.Duration

	// OnStartup runs once immediately instead of waiting an interval.
	OnStartup bool
}

// Trainer retrains the Markov model on a schedule. It runs as a supervised
// service.
type Trainer struct {
	service *Service
	config  TrainerConfig
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTrainer creates a periodic trainer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(service *Service, cfg TrainerConfig, logger zerolog.Logger) *Trainer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Trainer{
		service: service,
		config:  cfg,
		logger:  logger.With().Str("component", "trainer").Logger(),
		now:     time.Now,
	}
}

// RunOnce performs one training run. Insufficient data and an overlapping
// run are logged and reported as success so the schedule continues.
func (t *Trainer) RunOnce(ctx context.Context) error {
	var req TrainRequest
	if t.config.Lookback > 0 {
		start := t.now().UTC().Add(-t.config.Lookback)
		req.Start = &start
	}

	outcome, err := t.service.TrainMarkov(ctx, req)
	switch {
	case err == nil:
		t.logger.Info().
			Str("version", outcome.Version).
			Int("journeys", outcome.Stats.JourneysTrained).
			Int("transitions", outcome.Stats.TransitionsLearned).
			Msg("scheduled markov training complete")
		return nil
	case errors.Is(err, attribution.ErrInsufficientData):
		t.logger.Info().Err(err).Msg("skipping scheduled markov training")
		return nil
	case errors.Is(err, attribution.ErrTrainingInProgress):
		t.logger.Info().Msg("markov training already running, skipping scheduled run")
		return nil
	default:
		return err
	}
}

// Serve implements suture.Service. Run failures are logged; only context
// cancellation stops the loop.
func (t *Trainer) Serve(ctx context.Context) error {
	if t.config.OnStartup {
		t.run(ctx)
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.run(ctx)
		}
	}
}

func (t *Trainer) run(ctx context.Context) {
	if err := t.RunOnce(ctx); err != nil && ctx.Err() == nil {
		t.logger.Error().Err(err).Msg("scheduled markov training failed")
	}
}

// String names the service in supervisor logs.
func (t *Trainer) String() string {
	return "markov-trainer"
}
