// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

// Package analysis runs the store-backed attribution workflows: scoring a
// stored journey on demand, batch analysis with job tracking, and Markov
// training with versioned model-state persistence. The HTTP API, the
// periodic trainer and the offline training CLI all go through Service.
package analysis
