// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/pathcredit/internal/middleware"
)

func TestRouter_NotFoundEnvelope(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec, resp := doRequest(t, env.router, http.MethodGet, base+"/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeNotFound)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec, resp := doRequest(t, env.router, http.MethodGet, base+"/track/event", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if resp.Status != "error" {
		t.Errorf("envelope status = %q, want error", resp.Status)
	}
}

func TestRouter_RequestIDEcho(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, base+"/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "client-req-1")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if got := rec.Header().Get(middleware.RequestIDHeader); got != "client-req-1" {
		t.Errorf("%s = %q, want client-req-1", middleware.RequestIDHeader, got)
	}
	if !strings.Contains(rec.Body.String(), `"request_id":"client-req-1"`) {
		t.Errorf("body does not carry the request id: %s", rec.Body.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	doRequest(t, env.router, http.MethodGet, base+"/models/status", nil)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pathcredit_api_requests_total") {
		t.Error("/metrics does not expose pathcredit_api_requests_total")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimit.Requests = 1
	cfg.RateLimit.Window = time.Minute
	router := NewRouter(env.handler, NewChiMiddleware(cfg))

	rec, _ := doRequest(t, router, http.MethodGet, base+"/models/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec, resp := doRequest(t, router, http.MethodGet, base+"/models/status", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeTooManyRequests)
	}

	// Health is exempt.
	for i := 0; i < 3; i++ {
		rec, _ = doRequest(t, router, http.MethodGet, base+"/health", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("health request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cfg := DefaultChiMiddlewareConfig()
	cfg.CORS.AllowedOrigins = []string{"https://app.example"}
	cfg.RateLimit.Disabled = true
	router := NewRouter(env.handler, NewChiMiddleware(cfg))

	req := httptest.NewRequest(http.MethodOptions, base+"/track/event", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q, want https://app.example", got)
	}

	req = httptest.NewRequest(http.MethodOptions, base+"/track/event", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q for a disallowed origin, want empty", got)
	}
}
