// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit
/*
Package main is the entry point for the PathCredit attribution server.

PathCredit records marketing touchpoints per user, groups them into
journeys, attaches conversions and distributes conversion credit across
platforms and campaigns with Shapley, Markov removal-effect, linear and
Monte-Carlo Shapley models.

# Application Architecture

Process supervision uses suture v4:

	RootSupervisor ("pathcredit")
	├── DataSupervisor ("data-layer")
	│   └── markov-trainer (TRAINING_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-processor (watermill gochannel router)
	└── APISupervisor ("api-layer")
	    └── http-server (chi)

Component initialization order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB by default, PostgreSQL with DB_DRIVER=postgres
 4. Engine: models from ATTRIBUTION_MODELS, persisted Markov state restored
 5. Event processor: conversion.recorded to analyze and save
 6. Tracker: open-journey cache, publishes conversions
 7. HTTP server: /api/v1/attribution and /metrics

# Configuration

	HTTP_PORT=8480
	DUCKDB_PATH=/data/pathcredit.duckdb
	DB_DRIVER=duckdb                # or postgres with DATABASE_URL
	ATTRIBUTION_MODELS=shapley,markov
	ATTRIBUTION_DEFAULT_MODEL=shapley
	TRAIN_INTERVAL=1h
	LOG_LEVEL=info
	LOG_FORMAT=json

See the config package for every setting.

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests, the event router closes and the database is closed
last.
*/
package main
