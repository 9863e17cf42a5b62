// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package algorithms

import (
	"fmt"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// coldStartConfidence is reported by the Markov fallback.
const coldStartConfidence = 0.5

// Linear gives every touchpoint inside the attribution window equal credit.
type Linear struct {
	BaseModel
}

// NewLinear creates a linear model.
func NewLinear() *Linear {
	return &Linear{BaseModel: NewBaseModel(attribution.ModelLinear, "")}
}

// Score splits credit equally across the journey's touchpoints.
func (l *Linear) Score(j attribution.Journey) attribution.AttributionResult {
	filtered, null := prepareJourney(j, l.modelType, l.version)
	if null != nil {
		return *null
	}

	r := equalCredit(&filtered, l.version)
	r.ConfidenceScore = attribution.Confidence(&filtered)
	if text, ok := attribution.TopPlatformInsight(r.PlatformAttribution); ok {
		r.Insights = append(r.Insights, text)
	}
	if len(r.PlatformAttribution) > 1 {
		r.Insights = append(r.Insights,
			fmt.Sprintf("Multi-channel journey: %d platforms worked together", filtered.UniquePlatforms))
	}
	return r
}

// coldStart is the reproducible fallback for untrained models: equal
// credit, labeled linear, fixed confidence.
func coldStart(j *attribution.Journey, version string) attribution.AttributionResult {
	r := equalCredit(j, version)
	r.ConfidenceScore = coldStartConfidence
	r.Insights = []string{attribution.InsightLinearColdStart}
	return r
}

func equalCredit(j *attribution.Journey, version string) attribution.AttributionResult {
	n := len(j.Touchpoints)
	credits := make([]float64, n)
	for i := range credits {
		credits[i] = 1.0 / float64(n)
	}
	return attribution.BuildResult(j, attribution.ModelLinear, version, j.Touchpoints, credits)
}
