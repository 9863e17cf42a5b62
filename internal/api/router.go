// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pathcredit/internal/middleware"
)

// BasePath is the prefix of every attribution endpoint.
const BasePath = "/api/v1/attribution"

// NewRouter mounts the attribution API and the Prometheus endpoint.
func NewRouter(h *Handler, mw *ChiMiddleware) http.Handler {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}

	r := chi.NewRouter()

	// Global middleware, applied in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route(BasePath, func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		// Health stays outside the rate limiter for monitors.
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Use(middleware.Compression)

			r.Post("/track/event", h.TrackEvent)
			r.Post("/track/conversion", h.TrackConversion)

			r.Get("/journeys/{journeyID}", h.GetJourney)
			r.Get("/journeys/{journeyID}/results", h.GetJourneyResults)

			r.Post("/analyze/journey", h.AnalyzeJourney)
			r.Post("/analyze/batch", h.AnalyzeBatch)
			r.Post("/train/markov", h.TrainMarkov)

			r.Get("/models/status", h.ModelsStatus)
		})
	})

	return r
}
