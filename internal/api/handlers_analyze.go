// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// AnalyzeJourney scores one stored journey and saves the result.
//
// POST /api/v1/attribution/analyze/journey
func (h *Handler) AnalyzeJourney(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AnalyzeJourneyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	result, err := h.analyzer.AnalyzeJourney(r.Context(), req.JourneyID, attribution.ModelType(req.ModelType))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result, start)
}

// AnalyzeBatch scores the journeys in a date range and returns the
// completed batch job with its aggregate report.
//
// POST /api/v1/attribution/analyze/batch
func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AnalyzeBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}
	if msg := dateRangeError(req.StartDate, req.EndDate); msg != "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, msg, nil)
		return
	}

	job, err := h.analyzer.AnalyzeBatch(r.Context(), req.BatchRequest())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, job, start)
}

// TrainMarkov retrains the Markov model and activates the new state.
//
// POST /api/v1/attribution/train/markov
//
// Returns 400 INSUFFICIENT_DATA when too few converted journeys qualify
// and 409 when a training run is already in progress.
func (h *Handler) TrainMarkov(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TrainMarkovRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}
	if msg := dateRangeError(req.StartDate, req.EndDate); msg != "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, msg, nil)
		return
	}

	outcome, err := h.analyzer.TrainMarkov(r.Context(), req.TrainRequest())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, outcome, start)
}
