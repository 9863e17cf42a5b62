// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/pathcredit/internal/middleware"
)

// RateLimitConfig is a fixed-window request budget per client.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Disabled bool
	// KeyFunc buckets requests. Nil keys by client IP.
	KeyFunc httprate.KeyFunc
}

// ChiMiddlewareConfig configures CORS and rate limiting.
type ChiMiddlewareConfig struct {
	CORS      cors.Options
	RateLimit RateLimitConfig
}

// DefaultChiMiddlewareConfig allows no cross-origin callers and 600
// requests a minute per IP.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	traceHeaders := []string{middleware.RequestIDHeader, middleware.CorrelationIDHeader}
	return &ChiMiddlewareConfig{
		CORS: cors.Options{
			AllowedOrigins: []string{},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: append([]string{"Content-Type"}, traceHeaders...),
			ExposedHeaders: traceHeaders,
			MaxAge:         int((24 * time.Hour).Seconds()),
		},
		RateLimit: RateLimitConfig{Requests: 600, Window: time.Minute},
	}
}

// ChiMiddleware holds the CORS and rate limiting handlers mounted by
// NewRouter.
type ChiMiddleware struct {
	limit RateLimitConfig
	cors  func(http.Handler) http.Handler
}

// NewChiMiddleware builds both handlers. A nil config uses the defaults.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{
		limit: cfg.RateLimit,
		cors:  cors.Handler(cfg.CORS),
	}
}

// NewChiMiddlewareFromServer applies the server section of the config on
// top of the defaults.
func NewChiMiddlewareFromServer(origins []string, requests int, window time.Duration, disabled bool) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORS.AllowedOrigins = origins
	cfg.RateLimit = RateLimitConfig{Requests: requests, Window: window, Disabled: disabled}
	return NewChiMiddleware(cfg)
}

// CORS answers preflight requests and sets Access-Control headers.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit rejects clients over budget with a 429 envelope. When disabled
// it passes requests through untouched.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.limit.Disabled {
		return func(next http.Handler) http.Handler { return next }
	}
	key := m.limit.KeyFunc
	if key == nil {
		key = httprate.KeyByIP
	}
	tooMany := func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded", nil)
	}
	return httprate.Limit(m.limit.Requests, m.limit.Window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(tooMany),
	)
}
