// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/pathcredit/internal/metrics"
)

// EngineConfig configures the attribution engine.
type EngineConfig struct {
	// DefaultModel is used when a request names no model.
	// Default: shapley.
	DefaultModel ModelType `json:"default_model"`

	// BatchWorkers bounds concurrent scoring in ScoreBatch.
	// Default: 8.
	BatchWorkers int `json:"batch_workers"`

	// TenantID is stamped on every result.
	TenantID string `json:"tenant_id"`

	// Costs optionally enriches results with ROI and ROAS.
	Costs CostBook `json:"-"`
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		DefaultModel: ModelShapley,
		BatchWorkers: 8,
	}
}

// Validate checks the configuration.
func (c *EngineConfig) Validate() error {
	if !c.DefaultModel.Valid() {
		return fmt.Errorf("default_model: %w: %q", ErrUnknownModel, c.DefaultModel)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be at least 1, got %d", c.BatchWorkers)
	}
	return nil
}

// ModelStatus describes one registered model.
type ModelStatus struct {
	ModelType     ModelType `json:"model_type"`
	Version       string    `json:"version"`
	Trainable     bool      `json:"trainable"`
	IsTrained     bool      `json:"is_trained"`
	IsTraining    bool      `json:"is_training"`
	LastTrainedAt time.Time `json:"last_trained_at,omitempty"`
	TrainingRuns  int64     `json:"training_runs"`
	Scored        int64     `json:"journeys_scored"`
}

// modelEntry holds a registered model and its counters.
type modelEntry struct {
	model         Model
	scored        atomic.Int64
	trainingRuns  atomic.Int64
	training      atomic.Bool
	lastTrainedAt atomic.Pointer[time.Time]
}

// Engine dispatches scoring and training to registered models. Models are
// constructed by the caller and injected with RegisterModel. It is safe for
// concurrent use.
type Engine struct {
	config *EngineConfig
	logger zerolog.Logger

	models   map[ModelType]*modelEntry
	modelsMu sync.RWMutex
}

// NewEngine creates an attribution engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *EngineConfig, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "attribution").Logger(),
		models: make(map[ModelType]*modelEntry),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return *e.config
}

// RegisterModel adds or replaces the model for m.Type().
func (e *Engine) RegisterModel(m Model) {
	e.modelsMu.Lock()
	defer e.modelsMu.Unlock()

	e.models[m.Type()] = &modelEntry{model: m}
	e.logger.Info().
		Str("model", string(m.Type())).
		Msg("registered attribution model")
}

// Model returns the registered model for t. An empty t selects the default.
func (e *Engine) Model(t ModelType) (Model, error) {
	entry, err := e.entry(t)
	if err != nil {
		return nil, err
	}
	return entry.model, nil
}

// Models returns the registered model types in sorted order.
func (e *Engine) Models() []ModelType {
	e.modelsMu.RLock()
	defer e.modelsMu.RUnlock()

	out := make([]ModelType, 0, len(e.models))
	for t := range e.models {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

func (e *Engine) entry(t ModelType) (*modelEntry, error) {
	if t == "" {
		t = e.config.DefaultModel
	}

	e.modelsMu.RLock()
	defer e.modelsMu.RUnlock()

	entry, ok := e.models[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, t)
	}
	return entry, nil
}

// Score attributes one journey with the model t.
//
//nolint:gocritic // hugeParam: journey passed by value for immutability
func (e *Engine) Score(ctx context.Context, t ModelType, journey Journey) (AttributionResult, error) {
	if err := ctx.Err(); err != nil {
		return AttributionResult{}, err
	}
	entry, err := e.entry(t)
	if err != nil {
		return AttributionResult{}, err
	}
	return e.score(entry, &journey), nil
}

func (e *Engine) score(entry *modelEntry, journey *Journey) AttributionResult {
	start := time.Now()
	result := entry.model.Score(*journey)
	result.TenantID = e.config.TenantID
	ApplyCosts(&result, e.config.Costs)

	entry.scored.Add(1)
	metrics.RecordScore(string(entry.model.Type()), time.Since(start), result.Converted)
	return result
}

// ScoreWith scores one journey with each of the given models, in order.
// An empty list scores with every registered model.
//
//nolint:gocritic // hugeParam: journey passed by value for immutability
func (e *Engine) ScoreWith(ctx context.Context, types []ModelType, journey Journey) ([]AttributionResult, error) {
	if len(types) == 0 {
		types = e.Models()
	}

	results := make([]AttributionResult, 0, len(types))
	for _, t := range types {
		r, err := e.Score(ctx, t, journey)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// ScoreBatch scores journeys with model t using at most BatchWorkers
// goroutines. A BatchLearner learns from the whole batch first. Results are
// returned in input order.
func (e *Engine) ScoreBatch(ctx context.Context, t ModelType, journeys []Journey) ([]AttributionResult, error) {
	entry, err := e.entry(t)
	if err != nil {
		return nil, err
	}

	if learner, ok := entry.model.(BatchLearner); ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := learner.LearnBatch(journeys); err != nil {
			return nil, fmt.Errorf("failed to learn from batch: %w", err)
		}
	}

	results := make([]AttributionResult, len(journeys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.BatchWorkers)

	for i := range journeys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.score(entry, &journeys[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch scoring interrupted: %w", err)
	}

	e.logger.Debug().
		Str("model", string(entry.model.Type())).
		Int("journeys", len(journeys)).
		Msg("batch scored")

	return results, nil
}

// Train fits model t on journeys.
func (e *Engine) Train(ctx context.Context, t ModelType, journeys []Journey) (TrainingStats, error) {
	if err := ctx.Err(); err != nil {
		return TrainingStats{}, err
	}
	entry, err := e.entry(t)
	if err != nil {
		return TrainingStats{}, err
	}
	trainable, ok := entry.model.(TrainableModel)
	if !ok {
		return TrainingStats{}, fmt.Errorf("%w: %s", ErrNotTrainable, entry.model.Type())
	}

	entry.training.Store(true)
	defer entry.training.Store(false)

	start := time.Now()
	stats, err := trainable.Train(journeys)
	duration := time.Since(start)
	metrics.RecordTraining(string(trainable.Type()), duration, stats.TransitionsLearned, err)

	if err != nil {
		if errors.Is(err, ErrTrainingInProgress) {
			e.logger.Warn().Str("model", string(trainable.Type())).Msg("training skipped, already in progress")
		} else {
			e.logger.Error().Err(err).Str("model", string(trainable.Type())).Msg("training failed")
		}
		return TrainingStats{}, err
	}

	now := time.Now().UTC()
	entry.lastTrainedAt.Store(&now)
	entry.trainingRuns.Add(1)

	e.logger.Info().
		Str("model", string(trainable.Type())).
		Str("version", trainable.Version()).
		Int("journeys", stats.JourneysTrained).
		Int("transitions", stats.TransitionsLearned).
		Int("states", stats.StatesLearned).
		Dur("duration", duration).
		Msg("training complete")

	return stats, nil
}

// Status reports every registered model, sorted by type.
func (e *Engine) Status() []ModelStatus {
	types := e.Models()
	out := make([]ModelStatus, 0, len(types))

	for _, t := range types {
		entry, err := e.entry(t)
		if err != nil {
			continue
		}
		s := ModelStatus{
			ModelType:    t,
			Version:      DefaultModelVersion,
			IsTraining:   entry.training.Load(),
			TrainingRuns: entry.trainingRuns.Load(),
			Scored:       entry.scored.Load(),
		}
		if v, ok := entry.model.(interface{ Version() string }); ok {
			s.Version = v.Version()
		}
		if tm, ok := entry.model.(TrainableModel); ok {
			s.Trainable = true
			s.IsTrained = tm.IsTrained()
		}
		if at := entry.lastTrainedAt.Load(); at != nil {
			s.LastTrainedAt = *at
		} else if lt, ok := entry.model.(interface{ LastTrainedAt() time.Time }); ok {
			s.LastTrainedAt = lt.LastTrainedAt()
		}
		out = append(out, s)
	}
	return out
}
