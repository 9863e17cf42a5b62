// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/pathcredit/internal/logging"
)

const (
	// RequestIDHeader carries the per-request id.
	RequestIDHeader = "X-Request-ID"

	// CorrelationIDHeader carries the id that follows a tracked conversion
	// into the analysis pipeline.
	CorrelationIDHeader = "X-Correlation-ID"
)

// maxIDLength bounds ids accepted from clients.
const maxIDLength = 64

// RequestID attaches a request id and a correlation id to the request
// context and echoes both as response headers. Ids supplied by an upstream
// proxy or client are kept when they are short enough.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxIDLength {
			requestID = uuid.New().String()
		}
		correlationID := r.Header.Get(CorrelationIDHeader)
		if correlationID == "" || len(correlationID) > maxIDLength {
			correlationID = logging.GenerateCorrelationID()
		}

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
