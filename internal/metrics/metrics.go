// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathcredit_db_query_duration_seconds",
			Help:    "Duration of attribution store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathcredit_db_query_errors_total",
			Help: "Total number of attribution store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Scoring Metrics
	ScoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathcredit_score_duration_seconds",
			Help:    "Duration of scoring one journey in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"model"},
	)

	ScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathcredit_scores_total",
			Help: "Total number of journeys scored",
		},
		[]string{"model", "outcome"}, // outcome: "converted", "not_converted"
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathcredit_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"model", "status"}, // status: "success", "error"
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathcredit_training_duration_seconds",
			Help:    "Duration of model training runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	ModelTransitions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pathcredit_model_transitions",
			Help: "Number of transitions learned by the active model",
		},
		[]string{"model"},
	)

	// Tracking Metrics
	TrackedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathcredit_tracked_events_total",
			Help: "Total number of tracked touchpoints and conversions",
		},
		[]string{"kind"}, // kind: "touchpoint", "duplicate", "conversion"
	)

	// Journey Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathcredit_journey_cache_lookups_total",
			Help: "Total number of journey cache lookups",
		},
		[]string{"result"}, // result: "hit", "miss"
	)

	// Event Processing Metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathcredit_events_processed_total",
			Help: "Total number of background events processed",
		},
		[]string{"topic", "outcome"}, // outcome: "success", "error", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pathcredit_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathcredit_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathcredit_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordDBQuery records a store query and, on failure, its error.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordScore records one scored journey.
func RecordScore(model string, duration time.Duration, converted bool) {
	ScoreDuration.WithLabelValues(model).Observe(duration.Seconds())
	outcome := "not_converted"
	if converted {
		outcome = "converted"
	}
	ScoresTotal.WithLabelValues(model, outcome).Inc()
}

// RecordTraining records a training run.
func RecordTraining(model string, duration time.Duration, transitions int, err error) {
	TrainingDuration.WithLabelValues(model).Observe(duration.Seconds())
	if err != nil {
		TrainingRuns.WithLabelValues(model, "error").Inc()
		return
	}
	TrainingRuns.WithLabelValues(model, "success").Inc()
	ModelTransitions.WithLabelValues(model).Set(float64(transitions))
}

// RecordTrackedEvent counts an ingested touchpoint, duplicate or conversion.
func RecordTrackedEvent(kind string) {
	TrackedEvents.WithLabelValues(kind).Inc()
}

// RecordCacheLookup counts a journey cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// RecordEventProcessed counts a processed background message.
func RecordEventProcessed(topic, outcome string) {
	EventsProcessed.WithLabelValues(topic, outcome).Inc()
}

// SetCircuitBreakerState publishes a breaker state (0 closed, 1 half-open, 2 open).
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
