// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"context"
	"time"

	"github.com/tomtom215/pathcredit/internal/analysis"
	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/eventprocessor"
	"github.com/tomtom215/pathcredit/internal/validation"
)

// Tracker records touchpoints and conversions. Implemented by
// *attribution.Tracker.
type Tracker interface {
	TrackTouchpoint(ctx context.Context, tp attribution.Touchpoint) (attribution.TrackResult, error)
	TrackConversion(ctx context.Context, c attribution.Conversion) (attribution.ConversionResult, error)
}

// JourneyReader serves stored journeys and results. Implemented by
// *database.DB.
type JourneyReader interface {
	BuildJourneyFromDB(ctx context.Context, journeyID string) (*attribution.Journey, error)
	GetAttributionResults(ctx context.Context, journeyID string, modelType attribution.ModelType) ([]attribution.AttributionResult, error)
	Ping(ctx context.Context) error
}

// Analyzer runs on-demand analysis and training. Implemented by
// *analysis.Service.
type Analyzer interface {
	AnalyzeJourney(ctx context.Context, journeyID string, model attribution.ModelType) (attribution.AttributionResult, error)
	AnalyzeBatch(ctx context.Context, req analysis.BatchRequest) (*attribution.BatchJob, error)
	TrainMarkov(ctx context.Context, req analysis.TrainRequest) (analysis.TrainOutcome, error)
	Engine() *attribution.Engine
}

// ComponentChecker reports background component health. Implemented by
// *eventprocessor.Processor.
type ComponentChecker interface {
	Health() eventprocessor.ComponentHealth
}

// Handler serves the attribution API.
//
// Handler methods are split across files:
//   - handlers_track.go: touchpoint and conversion ingestion
//   - handlers_journeys.go: journey and result reads
//   - handlers_analyze.go: on-demand analysis and training
//   - handlers_health.go: model status and health
type Handler struct {
	tracker    Tracker
	journeys   JourneyReader
	analyzer   Analyzer
	components []ComponentChecker

	windowDays int
	startTime  time.Time
	now        func() time.Time
}

// HandlerConfig tunes request defaults.
type HandlerConfig struct {
	// DefaultWindowDays applies to conversions submitted without a window.
	// Default: 30.
	DefaultWindowDays int
}

// NewHandler creates the API handler. components may be empty.
func NewHandler(cfg HandlerConfig, tracker Tracker, journeys JourneyReader, analyzer Analyzer, components ...ComponentChecker) *Handler {
	if cfg.DefaultWindowDays <= 0 {
		cfg.DefaultWindowDays = attribution.DefaultAttributionWindowDays
	}
	return &Handler{
		tracker:    tracker,
		journeys:   journeys,
		analyzer:   analyzer,
		components: components,
		windowDays: cfg.DefaultWindowDays,
		startTime:  time.Now(),
		now:        time.Now,
	}
}

// validateRequest validates v, returning the error body on failure.
func validateRequest(v any) *APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}
