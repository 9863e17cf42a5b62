// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package database is the system of record for touchpoints, conversions and
journeys, and the history store for attribution results, Markov model
states and batch analysis jobs.

# Drivers

DuckDB (github.com/duckdb/duckdb-go/v2) is the default embedded store.
PostgreSQL is reached through pgx's database/sql driver
(github.com/jackc/pgx/v5/stdlib). Queries are written once with "?"
placeholders and rebound to "$n" for PostgreSQL.

# Tables

  - attribution_touchpoints, attribution_conversions, attribution_journeys
  - attribution_results (append-only)
  - attribution_model_states (one active row per model type and tenant)
  - attribution_batch_jobs
  - schema_migrations

Enums are stored as their string values and JSON columns as TEXT encoded
with github.com/goccy/go-json. rows.go is the only place rows are
converted to and from domain values.

# Timeouts

Calls without a deadline get a 30 second timeout. Schema operations use
60 seconds.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	journey, err := db.BuildJourneyFromDB(ctx, journeyID)
*/
package database
