// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package middleware provides the HTTP middleware shared by the attribution API.

  - RequestID: request and correlation ids on the context and response
    headers. The correlation id travels with a tracked conversion into the
    event pipeline, so one id ties the API call to its analysis logs.
  - PrometheusMetrics: request count and latency per chi route pattern.
  - Compression: gzip for clients sending Accept-Encoding: gzip.

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)
*/
package middleware
