// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

/*
Package config provides centralized configuration management for PathCredit.

# Configuration Sources

Configuration is layered with koanf v2, later layers overriding earlier ones:
  - Built-in defaults (structs provider)
  - Optional YAML file: CONFIG_PATH, ./config.yaml or /etc/pathcredit/config.yaml
  - Environment variables (mapped explicitly; unknown variables are ignored)

# Sections

  - server: HTTP listener, CORS and rate limiting
  - database: duckdb (default) or postgres
  - logging: zerolog level and format
  - attribution: default model, model parameters, journey cache, tenant
  - training: periodic Markov retraining
  - events: conversion pipeline buffer, retries and circuit breaker

# Example config.yaml

	database:
	  driver: duckdb
	  path: /data/pathcredit.duckdb
	attribution:
	  default_model: shapley
	  models: [shapley, markov]
	training:
	  interval: 1h
	  min_journeys: 10
*/
package config
