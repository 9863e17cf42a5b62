// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/pathcredit/internal/logging"
)

// captureIDs records the ids a handler sees on its context.
func captureIDs(requestID, correlationID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requestID = logging.RequestIDFromContext(r.Context())
		*correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_GeneratesIDs(t *testing.T) {
	t.Parallel()
	var requestID, correlationID string
	handler := RequestID(captureIDs(&requestID, &correlationID))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	header := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid: %v", header, err)
	}
	if requestID != header {
		t.Errorf("context request id = %q, want %q", requestID, header)
	}
	if correlationID == "" || rec.Header().Get(CorrelationIDHeader) != correlationID {
		t.Errorf("correlation id = %q, header %q", correlationID, rec.Header().Get(CorrelationIDHeader))
	}
}

func TestRequestID_KeepsUpstreamIDs(t *testing.T) {
	t.Parallel()
	var requestID, correlationID string
	handler := RequestID(captureIDs(&requestID, &correlationID))

	req := httptest.NewRequest(http.MethodPost, "/track/conversion", nil)
	req.Header.Set(RequestIDHeader, "proxy-request-1")
	req.Header.Set(CorrelationIDHeader, "checkout-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if requestID != "proxy-request-1" {
		t.Errorf("request id = %q, want proxy-request-1", requestID)
	}
	if correlationID != "checkout-42" {
		t.Errorf("correlation id = %q, want checkout-42", correlationID)
	}
}

func TestRequestID_RejectsOversizedIDs(t *testing.T) {
	t.Parallel()
	var requestID, correlationID string
	handler := RequestID(captureIDs(&requestID, &correlationID))

	long := strings.Repeat("x", maxIDLength+1)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, long)
	req.Header.Set(CorrelationIDHeader, long)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if requestID == long || correlationID == long {
		t.Error("oversized ids should be replaced")
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	t.Parallel()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get(RequestIDHeader)
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}
