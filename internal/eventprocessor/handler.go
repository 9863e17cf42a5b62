// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/logging"
	"github.com/tomtom215/pathcredit/internal/metrics"
)

// JourneySource rebuilds stored journeys.
type JourneySource interface {
	BuildJourneyFromDB(ctx context.Context, journeyID string) (*attribution.Journey, error)
}

// ResultSink persists attribution results.
type ResultSink interface {
	SaveAttributionResult(ctx context.Context, r *attribution.AttributionResult) (string, error)
}

// Scorer scores a journey with several models.
type Scorer interface {
	ScoreWith(ctx context.Context, types []attribution.ModelType, journey attribution.Journey) ([]attribution.AttributionResult, error)
}

// CacheInvalidator drops cached open journeys.
type CacheInvalidator interface {
	Invalidate(userID string)
}

// HandlerStats are the analysis handler's lifetime counters.
type HandlerStats struct {
	Received int64  `json:"received"`
	Analyzed int64  `json:"analyzed"`
	Skipped  int64  `json:"skipped"`
	Failed   int64  `json:"failed"`
	Results  int64  `json:"results_saved"`
	Breaker  string `json:"breaker_state"`
}

// AnalysisHandler scores converted journeys and saves the results.
type AnalysisHandler struct {
	source  JourneySource
	sink    ResultSink
	scorer  Scorer
	cache   CacheInvalidator
	breaker *gobreaker.CircuitBreaker[string]
	models  []attribution.ModelType
	logger  zerolog.Logger

	received atomic.Int64
	analyzed atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
	saved    atomic.Int64
}

// NewAnalysisHandler creates the conversion analysis handler. cache may be
// nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAnalysisHandler(cfg *Config, source JourneySource, sink ResultSink, scorer Scorer, cache CacheInvalidator, logger zerolog.Logger) (*AnalysisHandler, error) {
	if source == nil || sink == nil || scorer == nil {
		return nil, fmt.Errorf("%w: analysis handler needs a journey source, result sink and scorer", ErrMissingDependency)
	}
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "analysis_handler").Logger()
	return &AnalysisHandler{
		source: source,
		sink:   sink,
		scorer: scorer,
		cache:  cache,
		breaker: NewCircuitBreaker(CircuitBreakerConfig{
			Name:             "result_writer",
			MaxRequests:      1,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: cfg.BreakerMaxFailures,
		}, logger),
		models: cfg.Models,
		logger: logger,
	}, nil
}

// Handle processes one ConversionRecorded message. A nil return acks the
// message; an error hands it to the retry middleware.
func (h *AnalysisHandler) Handle(msg *message.Message) error {
	h.received.Add(1)

	ctx := msg.Context()
	if cid := middleware.MessageCorrelationID(msg); cid != "" {
		ctx = logging.ContextWithCorrelationID(ctx, cid)
	}
	logger := logging.CorrelatedLogger(ctx, h.logger)

	event, err := DecodeConversion(msg)
	if err != nil {
		h.skipped.Add(1)
		metrics.RecordEventProcessed(TopicConversions, "invalid")
		logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable conversion event")
		return nil
	}

	journey, err := h.source.BuildJourneyFromDB(ctx, event.JourneyID)
	if err != nil {
		if errors.Is(err, attribution.ErrNotFound) || errors.Is(err, attribution.ErrEmptyJourney) {
			h.skipped.Add(1)
			metrics.RecordEventProcessed(TopicConversions, "skipped")
			logger.Warn().Err(err).Str("journey_id", event.JourneyID).Msg("journey for conversion no longer exists")
			return nil
		}
		return h.fail(fmt.Errorf("failed to load journey %s: %w", event.JourneyID, err))
	}

	results, err := h.scorer.ScoreWith(ctx, h.models, *journey)
	if err != nil {
		return h.fail(fmt.Errorf("failed to score journey %s: %w", journey.ID, err))
	}

	for i := range results {
		r := &results[i]
		r.ID = resultID(event.ConversionID, journey.ID, r.ModelType)
		_, err := h.breaker.Execute(func() (string, error) {
			return h.sink.SaveAttributionResult(ctx, r)
		})
		if err != nil {
			return h.fail(fmt.Errorf("failed to save %s result for journey %s: %w", r.ModelType, journey.ID, err))
		}
		h.saved.Add(1)
	}

	if h.cache != nil {
		h.cache.Invalidate(journey.UserID)
	}

	h.analyzed.Add(1)
	metrics.RecordEventProcessed(TopicConversions, "analyzed")
	logger.Info().
		Str("journey_id", journey.ID).
		Int("touchpoints", journey.TotalTouchpoints).
		Int("results", len(results)).
		Msg("conversion analyzed")
	return nil
}

// resultID names the result of one model for one conversion, so a
// redelivered message rewrites none of the results already saved.
func resultID(conversionID, journeyID string, model attribution.ModelType) string {
	name := "pathcredit:result:" + conversionID + ":" + journeyID + ":" + string(model)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func (h *AnalysisHandler) fail(err error) error {
	h.failed.Add(1)
	metrics.RecordEventProcessed(TopicConversions, "failed")
	return err
}

// Stats returns the handler's counters.
func (h *AnalysisHandler) Stats() HandlerStats {
	return HandlerStats{
		Received: h.received.Load(),
		Analyzed: h.analyzed.Load(),
		Skipped:  h.skipped.Load(),
		Failed:   h.failed.Load(),
		Results:  h.saved.Load(),
		Breaker:  h.breaker.State().String(),
	}
}
