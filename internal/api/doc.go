// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package api serves the PathCredit attribution API over HTTP using chi.

# Endpoints

All routes live under /api/v1/attribution:

	POST /track/event               record a touchpoint
	POST /track/conversion          attach a conversion and queue analysis
	GET  /journeys/{journeyID}      rebuilt journey
	GET  /journeys/{journeyID}/results?model=
	                                stored results, newest first
	POST /analyze/journey           score and save one journey
	POST /analyze/batch             aggregate report over a date range
	POST /train/markov              retrain the Markov model
	GET  /models/status             registered models, versions, top paths
	GET  /health                    database and pipeline health

GET /metrics exposes Prometheus metrics.

# Responses

Every response uses one envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "...", "message": "..."}}

Request bodies are validated with go-playground/validator; failures return
400 with code VALIDATION_ERROR and the offending field in error.details.
Domain errors map to statuses in respondServiceError.

# Middleware

Request and correlation ids, chi RealIP and Recoverer, go-chi/cors, and
per-route Prometheus metrics apply to every route. Everything except
/health is rate limited per client IP with go-chi/httprate and gzip
compressed for clients that accept it.
*/
package api
