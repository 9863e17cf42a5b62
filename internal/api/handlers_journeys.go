// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// maxJourneyIDLength bounds journey ids taken from the path.
const maxJourneyIDLength = 128

func journeyIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "journeyID")
	if id == "" || len(id) > maxJourneyIDLength {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid journey id", nil)
		return "", false
	}
	return id, true
}

// GetJourney returns a journey rebuilt from its stored touchpoints and
// conversion.
//
// GET /api/v1/attribution/journeys/{journeyID}
func (h *Handler) GetJourney(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := journeyIDParam(w, r)
	if !ok {
		return
	}

	journey, err := h.journeys.BuildJourneyFromDB(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, journey, start)
}

// GetJourneyResults returns the stored attribution results of a journey,
// newest first, optionally filtered by ?model=.
//
// GET /api/v1/attribution/journeys/{journeyID}/results
func (h *Handler) GetJourneyResults(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := journeyIDParam(w, r)
	if !ok {
		return
	}

	var model attribution.ModelType
	if m := r.URL.Query().Get("model"); m != "" {
		parsed, err := attribution.ParseModelType(m)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		model = parsed
	}

	results, err := h.journeys.GetAttributionResults(r.Context(), id, model)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, results, start)
}
