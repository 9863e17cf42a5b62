// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/attribution/algorithms"
	"github.com/tomtom215/pathcredit/internal/eventprocessor"
)

// topPathsLimit is the number of converting paths reported per model.
const topPathsLimit = 10

// pathReporter is implemented by models that learn conversion paths.
type pathReporter interface {
	TopPaths(n int) []algorithms.PathProbability
}

// ModelReport describes one registered model.
type ModelReport struct {
	attribution.ModelStatus
	TopPaths []algorithms.PathProbability `json:"top_paths,omitempty"`
}

// ModelsStatusResponse is the body of GET /models/status.
type ModelsStatusResponse struct {
	DefaultModel attribution.ModelType `json:"default_model"`
	Models       []ModelReport         `json:"models"`
}

// ModelsStatus reports registered models, training state, versions and
// the most probable converting paths.
//
// GET /api/v1/attribution/models/status
func (h *Handler) ModelsStatus(w http.ResponseWriter, r *http.Request) {
	engine := h.analyzer.Engine()

	statuses := engine.Status()
	reports := make([]ModelReport, 0, len(statuses))
	for _, s := range statuses {
		report := ModelReport{ModelStatus: s}
		if m, err := engine.Model(s.ModelType); err == nil {
			if pr, ok := m.(pathReporter); ok {
				report.TopPaths = pr.TopPaths(topPathsLimit)
			}
		}
		reports = append(reports, report)
	}

	respondSuccess(w, r, http.StatusOK, ModelsStatusResponse{
		DefaultModel: engine.Config().DefaultModel,
		Models:       reports,
	}, time.Time{})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status            string                           `json:"status"`
	DatabaseConnected bool                             `json:"database_connected"`
	Components        []eventprocessor.ComponentHealth `json:"components,omitempty"`
	Models            []attribution.ModelType          `json:"models"`
	Uptime            float64                          `json:"uptime_seconds"`
}

// healthPingTimeout bounds the database ping of a health check.
const healthPingTimeout = 2 * time.Second

// Health reports database connectivity and background component health.
// The status is "degraded" when any check fails; the response code is 200
// either way so monitors can read the details.
//
// GET /api/v1/attribution/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:            "healthy",
		DatabaseConnected: h.journeys.Ping(ctx) == nil,
		Models:            h.analyzer.Engine().Models(),
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if !resp.DatabaseConnected {
		resp.Status = "degraded"
	}
	for _, c := range h.components {
		health := c.Health()
		if !health.Healthy {
			resp.Status = "degraded"
		}
		resp.Components = append(resp.Components, health)
	}

	respondSuccess(w, r, http.StatusOK, resp, time.Time{})
}
