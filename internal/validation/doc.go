// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package validation validates API request payloads with go-playground/validator v10.

A single validator instance is shared process-wide; it caches struct
metadata and is safe for concurrent use. Field names in error messages are
taken from json tags so they match what the client sent.

# Custom Tags

  - platform: a known marketing platform (meta, google_ads, ...)
  - event_type: a known touchpoint event type (click, impression, ...)
  - model_type: a known attribution model (shapley, markov, ...)

# Usage

	type trackRequest struct {
	    EventID  string `json:"event_id" validate:"required,max=128"`
	    Platform string `json:"platform" validate:"required,platform"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    // respond 400 with apiErr.Code, apiErr.Message and apiErr.Details
	}
*/
package validation
