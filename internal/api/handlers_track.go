// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/pathcredit/internal/logging"
)

// TrackEvent records one touchpoint.
//
// POST /api/v1/attribution/track/event
//
// Returns 201 with the event id, journey id and journey touchpoint count,
// or 200 when the event was already recorded.
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TrackEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	result, err := h.tracker.TrackTouchpoint(r.Context(), req.Touchpoint(h.now().UTC()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	respondSuccess(w, r, status, result, start)
}

// TrackConversion attaches a conversion to the user's open journey and
// queues attribution analysis.
//
// POST /api/v1/attribution/track/conversion
//
// Returns 202 when analysis was queued and 201 when the conversion was
// stored but the queue was unavailable.
func (h *Handler) TrackConversion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TrackConversionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}

	result, err := h.tracker.TrackConversion(r.Context(), req.Conversion(h.now().UTC(), h.windowDays))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	status := http.StatusAccepted
	switch {
	case result.Duplicate:
		status = http.StatusOK
	case !result.AnalysisQueued:
		status = http.StatusCreated
		logging.Ctx(r.Context()).Warn().
			Str("journey_id", result.JourneyID).
			Msg("Conversion stored without queued analysis")
	}
	respondSuccess(w, r, status, result, start)
}
