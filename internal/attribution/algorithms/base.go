// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

// Package algorithms implements the attribution models registered with the
// attribution engine.
//
// # Models
//
//   - Shapley: position, exclusivity and transition heuristic with
//     down-sampling of long journeys
//   - ShapleyBatch: Shapley plus learned P(convert | platform set)
//   - MonteCarloShapley: permutation-sampled Shapley values over platforms
//   - Markov: removal-effect attribution over learned transitions
//   - Linear: equal credit, also the Markov cold-start fallback
//
// # Thread Safety
//
// Score never mutates model state and may run concurrently. Training
// builds a new parameter set and publishes it with one atomic swap, so a
// scorer sees either the old or the new parameters, never a mix.
package algorithms

import (
	"github.com/tomtom215/pathcredit/internal/attribution"
)

// BaseModel provides the identity every model reports.
type BaseModel struct {
	modelType attribution.ModelType
	version   string
}

// NewBaseModel creates a base model with the given type and version.
func NewBaseModel(modelType attribution.ModelType, version string) BaseModel {
	if version == "" {
		version = attribution.DefaultModelVersion
	}
	return BaseModel{modelType: modelType, version: version}
}

// Type returns the model identifier.
func (b *BaseModel) Type() attribution.ModelType {
	return b.modelType
}

// Version returns the model version.
func (b *BaseModel) Version() string {
	return b.version
}

// prepareJourney applies the conversion's attribution window. It returns a
// non-nil result when there is nothing to attribute.
func prepareJourney(j attribution.Journey, modelType attribution.ModelType, version string) (attribution.Journey, *attribution.AttributionResult) {
	if !j.Converted || j.Conversion == nil {
		r := attribution.NullResult(&j, modelType, version, attribution.InsightNotConverted)
		return j, &r
	}

	window := j.Conversion.WindowDays()
	filtered := attribution.FilterWithinAttributionWindow(j, window)
	if len(filtered.Touchpoints) == 0 {
		r := attribution.NullResult(&filtered, modelType, version, attribution.WindowExcludedInsight(window))
		return filtered, &r
	}
	return filtered, nil
}

// distinctPlatforms returns platforms in order of first appearance.
func distinctPlatforms(tps []attribution.Touchpoint) []attribution.Platform {
	seen := make(map[attribution.Platform]struct{}, len(tps))
	out := make([]attribution.Platform, 0, len(tps))
	for i := range tps {
		p := tps[i].Platform
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Ensure all models implement the interfaces.
var (
	_ attribution.Model          = (*Shapley)(nil)
	_ attribution.TrainableModel = (*ShapleyBatch)(nil)
	_ attribution.BatchLearner   = (*ShapleyBatch)(nil)
	_ attribution.Model          = (*MonteCarloShapley)(nil)
	_ attribution.StatefulModel  = (*Markov)(nil)
	_ attribution.Model          = (*Linear)(nil)
)
