// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// Store is the persistence the service needs. Implemented by
// *database.DB.
type Store interface {
	BuildJourneyFromDB(ctx context.Context, journeyID string) (*attribution.Journey, error)
	LoadJourneys(ctx context.Context, filter attribution.JourneyFilter) ([]attribution.Journey, error)
	SaveAttributionResult(ctx context.Context, r *attribution.AttributionResult) (string, error)

	SaveModelState(ctx context.Context, state *attribution.ModelState) (attribution.ModelState, error)
	GetActiveModelState(ctx context.Context, modelType attribution.ModelType, tenantID string) (*attribution.ModelState, error)

	CreateBatchJob(ctx context.Context, job *attribution.BatchJob) error
	UpdateBatchJob(ctx context.Context, job *attribution.BatchJob) error
}

// Config configures the service.
type Config struct {
	// TenantID scopes model states and batch jobs.
	TenantID string

	// MinTrainingJourneys is the fewest journeys a training run accepts.
	// Default: 10.
	MinTrainingJourneys int

	// TrainingJourneyLimit caps the journeys loaded per training run.
	// Default: 1000.
	TrainingJourneyLimit int

	// MinTouchpoints skips shorter journeys when training.
	// Default: 2.
	MinTouchpoints int

	// BatchJourneyLimit caps batch analysis requests that give no limit.
	// Default: 1000.
	BatchJourneyLimit int
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		MinTrainingJourneys:  10,
		TrainingJourneyLimit: 1000,
		MinTouchpoints:       2,
		BatchJourneyLimit:    1000,
	}
}

// Service runs attribution workflows against the store.
type Service struct {
	store  Store
	engine *attribution.Engine
	config Config
	logger zerolog.Logger
}

// NewService creates the analysis service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg Config, store Store, engine *attribution.Engine, logger zerolog.Logger) *Service {
	def := DefaultConfig()
	if cfg.MinTrainingJourneys <= 0 {
		cfg.MinTrainingJourneys = def.MinTrainingJourneys
	}
	if cfg.TrainingJourneyLimit <= 0 {
		cfg.TrainingJourneyLimit = def.TrainingJourneyLimit
	}
	if cfg.MinTouchpoints <= 0 {
		cfg.MinTouchpoints = def.MinTouchpoints
	}
	if cfg.BatchJourneyLimit <= 0 {
		cfg.BatchJourneyLimit = def.BatchJourneyLimit
	}
	return &Service{
		store:  store,
		engine: engine,
		config: cfg,
		logger: logger.With().Str("component", "analysis").Logger(),
	}
}

// Engine returns the engine the service scores with.
func (s *Service) Engine() *attribution.Engine {
	return s.engine
}

// AnalyzeJourney rebuilds a stored journey, scores it with model and saves
// the result. The returned result carries its stored id.
func (s *Service) AnalyzeJourney(ctx context.Context, journeyID string, model attribution.ModelType) (attribution.AttributionResult, error) {
	if model == "" {
		model = s.engine.Config().DefaultModel
	}
	journey, err := s.store.BuildJourneyFromDB(ctx, journeyID)
	if err != nil {
		return attribution.AttributionResult{}, err
	}

	result, err := s.engine.Score(ctx, model, *journey)
	if err != nil {
		return attribution.AttributionResult{}, err
	}

	id, err := s.store.SaveAttributionResult(ctx, &result)
	if err != nil {
		return attribution.AttributionResult{}, err
	}
	result.ID = id

	s.logger.Info().
		Str("journey_id", journeyID).
		Str("model", string(result.ModelType)).
		Msg("journey analyzed")
	return result, nil
}

// BatchRequest selects the journeys of a batch analysis.
type BatchRequest struct {
	ModelType attribution.ModelType
	Start     *time.Time
	End       *time.Time
	Limit     int
}

// AnalyzeBatch scores every journey in the requested range and aggregates
// the results. Progress is tracked as a batch job; the returned job carries
// the report.
func (s *Service) AnalyzeBatch(ctx context.Context, req BatchRequest) (*attribution.BatchJob, error) {
	if req.ModelType == "" {
		req.ModelType = s.engine.Config().DefaultModel
	}
	if _, err := s.engine.Model(req.ModelType); err != nil {
		return nil, err
	}
	if req.Limit <= 0 || req.Limit > s.config.BatchJourneyLimit {
		req.Limit = s.config.BatchJourneyLimit
	}

	job := &attribution.BatchJob{
		ModelType:    req.ModelType,
		TenantID:     s.config.TenantID,
		StartDate:    req.Start,
		EndDate:      req.End,
		JourneyLimit: req.Limit,
	}
	if err := s.store.CreateBatchJob(ctx, job); err != nil {
		return nil, err
	}

	report, err := s.runBatch(ctx, job, req)
	if err != nil {
		s.finishJob(job, attribution.BatchJobFailed, err)
		return job, err
	}
	job.Report = &report
	s.finishJob(job, attribution.BatchJobCompleted, nil)
	return job, nil
}

func (s *Service) runBatch(ctx context.Context, job *attribution.BatchJob, req BatchRequest) (attribution.BatchReport, error) {
	started := time.Now().UTC()
	job.Status = attribution.BatchJobRunning
	job.StartedAt = &started

	journeys, err := s.store.LoadJourneys(ctx, journeyFilter(req.Start, req.End, req.Limit, false, 0, s.config.TenantID))
	if err != nil {
		return attribution.BatchReport{}, err
	}
	job.TotalJourneys = len(journeys)
	if err := s.store.UpdateBatchJob(ctx, job); err != nil {
		return attribution.BatchReport{}, err
	}

	results, err := s.engine.ScoreBatch(ctx, req.ModelType, journeys)
	if err != nil {
		return attribution.BatchReport{}, err
	}
	job.ProcessedJourneys = len(results)

	report := attribution.Aggregate(req.ModelType, results)
	s.logger.Info().
		Str("job_id", job.ID).
		Str("model", string(req.ModelType)).
		Int("journeys", len(results)).
		Float64("revenue", report.TotalRevenue).
		Msg("batch analysis complete")
	return report, nil
}

// finishJob records the final job state. It uses a fresh context so a
// canceled request still leaves the job marked.
func (s *Service) finishJob(job *attribution.BatchJob, status attribution.BatchJobStatus, cause error) {
	now := time.Now().UTC()
	job.Status = status
	job.CompletedAt = &now
	if cause != nil {
		job.ErrorMessage = cause.Error()
		job.FailedJourneys = job.TotalJourneys - job.ProcessedJourneys
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.UpdateBatchJob(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to record batch job result")
	}
}

// TrainRequest selects the journeys of a Markov training run.
type TrainRequest struct {
	Start          *time.Time
	End            *time.Time
	MinTouchpoints int
	Limit          int
}

// TrainOutcome reports a completed training run.
type TrainOutcome struct {
	Stats   attribution.TrainingStats `json:"stats"`
	Version string                    `json:"version"`
	StateID string                    `json:"state_id"`
}

// TrainMarkov trains the Markov model on recent converted journeys and
// saves the learned parameters as the new active model state. It returns
// attribution.ErrInsufficientData when fewer than MinTrainingJourneys
// journeys qualify.
func (s *Service) TrainMarkov(ctx context.Context, req TrainRequest) (TrainOutcome, error) {
	model, err := s.engine.Model(attribution.ModelMarkov)
	if err != nil {
		return TrainOutcome{}, err
	}
	stateful, ok := model.(attribution.StatefulModel)
	if !ok {
		return TrainOutcome{}, fmt.Errorf("%w: %s", attribution.ErrNotTrainable, attribution.ModelMarkov)
	}

	if req.MinTouchpoints <= 0 {
		req.MinTouchpoints = s.config.MinTouchpoints
	}
	if req.Limit <= 0 || req.Limit > s.config.TrainingJourneyLimit {
		req.Limit = s.config.TrainingJourneyLimit
	}

	journeys, err := s.store.LoadJourneys(ctx, journeyFilter(req.Start, req.End, req.Limit, true, req.MinTouchpoints, s.config.TenantID))
	if err != nil {
		return TrainOutcome{}, err
	}
	if len(journeys) < s.config.MinTrainingJourneys {
		return TrainOutcome{}, fmt.Errorf("%w: %d journeys available, need at least %d",
			attribution.ErrInsufficientData, len(journeys), s.config.MinTrainingJourneys)
	}

	stats, err := s.engine.Train(ctx, attribution.ModelMarkov, journeys)
	if err != nil {
		return TrainOutcome{}, err
	}

	state := stateful.State()
	state.TenantID = s.config.TenantID
	saved, err := s.store.SaveModelState(ctx, &state)
	if err != nil {
		return TrainOutcome{}, fmt.Errorf("failed to save markov state: %w", err)
	}

	return TrainOutcome{Stats: stats, Version: saved.Version, StateID: saved.ID}, nil
}

// WarmPlatformSets teaches the batch Shapley model the conversion rate of
// every platform set seen in stored journeys, converted or not, since
// start. Those rates are the Monte-Carlo estimator's value function.
// Learning is cumulative, so call it once per process. It is a no-op when
// the registered Shapley model does not learn.
func (s *Service) WarmPlatformSets(ctx context.Context, start *time.Time) (attribution.TrainingStats, error) {
	model, err := s.engine.Model(attribution.ModelShapley)
	if err != nil {
		return attribution.TrainingStats{}, err
	}
	if _, ok := model.(attribution.TrainableModel); !ok {
		return attribution.TrainingStats{}, nil
	}

	journeys, err := s.store.LoadJourneys(ctx, journeyFilter(start, nil, s.config.TrainingJourneyLimit, false, 0, s.config.TenantID))
	if err != nil {
		return attribution.TrainingStats{}, err
	}
	if len(journeys) == 0 {
		return attribution.TrainingStats{}, nil
	}
	return s.engine.Train(ctx, attribution.ModelShapley, journeys)
}

// RestoreModels loads the active persisted state of every stateful
// registered model. Models without a stored state keep their cold-start
// behavior.
func (s *Service) RestoreModels(ctx context.Context) error {
	for _, t := range s.engine.Models() {
		model, err := s.engine.Model(t)
		if err != nil {
			return err
		}
		stateful, ok := model.(attribution.StatefulModel)
		if !ok {
			continue
		}

		state, err := s.store.GetActiveModelState(ctx, t, s.config.TenantID)
		if errors.Is(err, attribution.ErrNotFound) {
			s.logger.Info().Str("model", string(t)).Msg("no stored model state, starting untrained")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s state: %w", t, err)
		}
		if err := stateful.Restore(*state); err != nil {
			return fmt.Errorf("failed to restore %s state: %w", t, err)
		}
		s.logger.Info().
			Str("model", string(t)).
			Str("version", state.Version).
			Int("journeys_trained", state.JourneysTrained).
			Msg("model state restored")
	}
	return nil
}

func journeyFilter(start, end *time.Time, limit int, convertedOnly bool, minTouchpoints int, tenantID string) attribution.JourneyFilter {
	f := attribution.JourneyFilter{
		Limit:          limit,
		ConvertedOnly:  convertedOnly,
		MinTouchpoints: minTouchpoints,
		TenantID:       tenantID,
	}
	if start != nil {
		f.Start = *start
	}
	if end != nil {
		f.End = *end
	}
	return f
}
