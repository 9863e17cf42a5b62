// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/pathcredit/internal/analysis"
	"github.com/tomtom215/pathcredit/internal/api"
	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/config"
	"github.com/tomtom215/pathcredit/internal/database"
	"github.com/tomtom215/pathcredit/internal/eventprocessor"
	"github.com/tomtom215/pathcredit/internal/logging"
	"github.com/tomtom215/pathcredit/internal/supervisor"
	"github.com/tomtom215/pathcredit/internal/supervisor/services"
)

// startupTimeout bounds model restore and warm-up before serving.
const startupTimeout = 2 * time.Minute

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_driver", cfg.Database.Driver).
		Str("default_model", cfg.Attribution.DefaultModel).
		Strs("models", cfg.Attribution.Models).
		Str("environment", cfg.Server.Environment).
		Msg("Starting PathCredit with supervisor tree")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	engine, err := analysis.NewEngine(&cfg.Attribution, logging.WithComponent("engine"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build attribution engine")
	}
	scoring, err := analysis.ScoringModels(&cfg.Attribution)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid attribution models")
	}

	svc := analysis.NewService(analysis.Config{
		TenantID:             cfg.Attribution.TenantID,
		MinTrainingJourneys:  cfg.Training.MinJourneys,
		TrainingJourneyLimit: cfg.Training.JourneyLimit,
		MinTouchpoints:       cfg.Training.MinTouchpoints,
	}, db, engine, logging.WithComponent("analysis"))

	warmUp(svc, cfg)

	// Processor first: the tracker publishes through it and the analysis
	// handler invalidates the tracker's cache.
	processor, err := eventprocessor.NewProcessor(&eventprocessor.Config{
		BufferSize:           cfg.Events.BufferSize,
		RetryCount:           cfg.Events.RetryCount,
		RetryInitialInterval: cfg.Events.RetryInitialInterval,
		RetryMaxInterval:     eventprocessor.DefaultConfig().RetryMaxInterval,
		BreakerMaxFailures:   cfg.Events.BreakerMaxFailures,
		BreakerTimeout:       cfg.Events.BreakerTimeout,
		CloseTimeout:         cfg.Events.CloseTimeout,
		Models:               scoring,
	}, logging.WithComponent("events"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event processor")
	}
	defer func() {
		if err := processor.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event processor")
		}
	}()

	tracker := attribution.NewTracker(attribution.TrackerConfig{
		CacheSize: cfg.Attribution.JourneyCacheSize,
		CacheTTL:  cfg.Attribution.JourneyCacheTTL,
		TenantID:  cfg.Attribution.TenantID,
	}, db, processor.Publisher(), logging.WithComponent("tracker"))

	analysisHandler, err := eventprocessor.NewAnalysisHandler(&eventprocessor.Config{
		BreakerMaxFailures: cfg.Events.BreakerMaxFailures,
		BreakerTimeout:     cfg.Events.BreakerTimeout,
		Models:             scoring,
	}, db, db, engine, tracker, logging.WithComponent("events"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create analysis handler")
	}
	if err := processor.RegisterAnalysisHandler(analysisHandler); err != nil {
		logging.Fatal().Err(err).Msg("Failed to register analysis handler")
	}

	handler := api.NewHandler(api.HandlerConfig{
		DefaultWindowDays: cfg.Attribution.DefaultWindowDays,
	}, tracker, db, svc, processor)

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.IsProduction() && containsWildcard(cfg.Server.CORSOrigins) {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
	}
	mw := api.NewChiMiddlewareFromServer(
		cfg.Server.CORSOrigins,
		cfg.Server.RateLimitReqs,
		cfg.Server.RateLimitWindow,
		cfg.Server.RateLimitDisabled,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, mw),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Training.Enabled && hasModel(engine, attribution.ModelMarkov) {
		tree.AddDataService(analysis.NewTrainer(svc, analysis.TrainerConfig{
			Interval:  cfg.Training.Interval,
			Lookback:  cfg.Training.Lookback,
			OnStartup: cfg.Training.OnStartup,
		}, logging.WithComponent("trainer")))
		logging.Info().Dur("interval", cfg.Training.Interval).Msg("Markov trainer added to supervisor tree")
	}

	tree.AddMessagingService(processor)

	// The gochannel bus drops messages published before the router
	// subscribes, so the server waits for it.
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout).WaitFor(processor.Running()))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, s := range unstopped {
			logging.Warn().Str("service", s.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// warmUp restores persisted model states and teaches the batch Shapley
// model its platform-set rates. Failures leave models cold and are logged.
func warmUp(svc *analysis.Service, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := svc.RestoreModels(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to restore model states, starting untrained")
	}

	var since *time.Time
	if cfg.Training.Lookback > 0 {
		t := time.Now().UTC().Add(-cfg.Training.Lookback)
		since = &t
	}
	stats, err := svc.WarmPlatformSets(ctx, since)
	switch {
	case errors.Is(err, attribution.ErrUnknownModel):
		// shapley not registered
	case err != nil:
		logging.Warn().Err(err).Msg("Failed to learn platform-set conversion rates")
	default:
		logging.Info().Int("journeys", stats.JourneysTrained).Msg("Platform-set conversion rates learned")
	}
}

func hasModel(engine *attribution.Engine, t attribution.ModelType) bool {
	_, err := engine.Model(t)
	return err == nil
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
