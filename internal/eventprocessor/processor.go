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
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/logging"
	"github.com/tomtom215/pathcredit/internal/metrics"
)

// Processor owns the bus and router of the conversion pipeline. Create it,
// hand Publisher() to the tracker, register the analysis handler, then run
// Serve under the supervisor.
type Processor struct {
	bus       *gochannel.GoChannel
	router    *Router
	publisher *ConversionPublisher
	analysis  *AnalysisHandler
	logger    zerolog.Logger

	poisoned atomic.Int64
}

// ComponentHealth is the health of the pipeline.
type ComponentHealth struct {
	Name      string         `json:"name"`
	Healthy   bool           `json:"healthy"`
	Message   string         `json:"message,omitempty"`
	LastCheck time.Time      `json:"last_check"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewProcessor creates the bus, publisher and router.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewProcessor(cfg *Config, logger zerolog.Logger) (*Processor, error) {
	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "eventprocessor").Logger()
	wmLogger := logging.NewWatermillLogger(logger)

	bus := NewBus(cfg.BufferSize, wmLogger)
	publisher, err := NewConversionPublisher(bus)
	if err != nil {
		return nil, err
	}
	router, err := NewRouter(routerConfigFrom(cfg), bus, wmLogger)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		bus:       bus,
		router:    router,
		publisher: publisher,
		logger:    logger,
	}
	router.AddConsumerHandler("poison_logger", TopicPoison, bus, p.handlePoisoned)
	return p, nil
}

// Publisher returns the publisher the tracker queues conversions with.
func (p *Processor) Publisher() *ConversionPublisher {
	return p.publisher
}

// RegisterAnalysisHandler subscribes h to TopicConversions. It must be
// called before Serve.
func (p *Processor) RegisterAnalysisHandler(h *AnalysisHandler) error {
	if h == nil {
		return fmt.Errorf("%w: analysis handler", ErrMissingDependency)
	}
	if p.router.IsRunning() {
		return errors.New("cannot register a handler on a running router")
	}
	p.analysis = h
	p.router.AddConsumerHandler("conversion_analysis", TopicConversions, p.bus, h.Handle)
	return nil
}

// handlePoisoned records messages that exhausted their retries.
func (p *Processor) handlePoisoned(msg *message.Message) error {
	p.poisoned.Add(1)
	metrics.RecordEventProcessed(TopicPoison, "poisoned")
	p.logger.Error().
		Str("message_uuid", msg.UUID).
		Str("journey_id", msg.Metadata.Get(MetadataJourneyID)).
		Str("correlation_id", middleware.MessageCorrelationID(msg)).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("conversion analysis abandoned after retries")
	return nil
}

// Running returns a channel closed once every handler has subscribed.
// Conversions published before then are dropped.
func (p *Processor) Running() chan struct{} {
	return p.router.Running()
}

// Serve runs the router until ctx is canceled. It implements suture.Service.
func (p *Processor) Serve(ctx context.Context) error {
	p.logger.Info().Int("handlers", p.router.HandlerCount()).Msg("event router starting")
	err := p.router.Run(ctx)
	if ctx.Err() != nil {
		// Canceled by the supervisor; report the cancellation, not the
		// router's shutdown error.
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("event router stopped: %w", err)
	}
	return errors.New("event router stopped unexpectedly")
}

// String names the service in supervisor logs.
func (p *Processor) String() string {
	return "event-processor"
}

// Close stops the router and the bus.
func (p *Processor) Close() error {
	var errs []error
	if err := p.router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close router: %w", err))
	}
	if err := p.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	return errors.Join(errs...)
}

// Health reports whether the router is running and the handler counters.
func (p *Processor) Health() ComponentHealth {
	h := ComponentHealth{
		Name:      "event_processor",
		Healthy:   p.router.IsRunning(),
		LastCheck: time.Now().UTC(),
		Details:   map[string]any{"poisoned": p.poisoned.Load()},
	}
	if h.Healthy {
		h.Message = "Router is running"
	} else {
		h.Message = "Router is not running"
	}
	if p.analysis != nil {
		h.Details["analysis"] = p.analysis.Stats()
	}
	return h
}
