// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

// Package attribution holds the event and journey model of the attribution
// engine, the result and reporting types, and the Engine and Tracker that
// coordinate scoring and ingestion.
//
// # Data Model
//
// A Touchpoint is one recorded marketing interaction. A Conversion is the
// monetized outcome credit is assigned toward. A Journey is the ordered list
// of touchpoints for one user plus at most one conversion:
//
//	journey, err := attribution.BuildJourney("user-1", touchpoints, &conversion)
//	if errors.Is(err, attribution.ErrEmptyJourney) {
//	    // nothing to score
//	}
//
// Journey ids are a deterministic hash of (user, first touch, last touch), so
// rebuilding a journey from the same touchpoint set always yields the same id.
//
// # Models
//
// Scoring models live in the algorithms subpackage and implement Model. They
// are constructed once by the caller and registered with an Engine; there is
// no package-level registry.
//
//	engine := attribution.NewEngine(cfg, logger)
//	engine.RegisterModel(algorithms.NewShapley(algorithms.DefaultShapleyConfig()))
//	result, err := engine.Score(ctx, attribution.ModelShapley, journey)
//
// Every model applies FilterWithinAttributionWindow before computing credit,
// and every converting result carries platform credits that sum to 1.0.
//
// # Thread Safety
//
// Touchpoint, Conversion and Journey are values and are never mutated after
// construction. Engine and Tracker are safe for concurrent use.
package attribution
