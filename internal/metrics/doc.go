// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package metrics provides Prometheus metrics for the attribution service.

# Overview

The package provides metrics for:
  - Store query latency and errors
  - Scoring latency and outcomes per model
  - Training runs, duration and learned transitions
  - Tracked touchpoints, duplicates and conversions
  - Journey cache hit/miss rates
  - Background event processing and circuit breaker state
  - HTTP request latency and throughput

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8480/metrics

# Usage

All collectors are registered with the default registry through promauto.
Callers use the Record* helpers rather than the collectors directly:

	start := time.Now()
	err := db.SaveTouchpoint(ctx, tp, journeyID)
	metrics.RecordDBQuery("INSERT", "attribution_touchpoints", time.Since(start), err)
*/
package metrics
