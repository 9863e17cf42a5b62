// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package algorithms

import (
	"fmt"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// Heuristic weights of the Shapley approximation.
const (
	weightFirstTouch  = 0.3
	weightLastTouch   = 0.4
	weightMiddleTouch = 0.2
	bonusExclusive    = 0.2
	bonusTransition   = 0.1

	// dominanceRatio is how much larger first or last touch credit must be
	// to be called out as dominant.
	dominanceRatio = 1.5

	// synergyThreshold is the summed removal-style effect above which
	// channels are reported as reinforcing each other.
	synergyThreshold = 1.0
)

// ShapleyConfig contains configuration for the Shapley model.
type ShapleyConfig struct {
	// MaxTouchpoints caps how many touchpoints are scored. Longer journeys
	// keep their first and last touchpoint and sample the middle evenly.
	// Values below 2 are raised to 2.
	// Default: 10.
	MaxTouchpoints int
}

// DefaultShapleyConfig returns default Shapley configuration.
func DefaultShapleyConfig() ShapleyConfig {
	return ShapleyConfig{MaxTouchpoints: 10}
}

// Shapley approximates each touchpoint's marginal contribution with an
// additive heuristic instead of enumerating all 2^n coalitions:
//
//	raw(i) = position(i) + 0.2 if platform(i) is unique + 0.1 if platform(i) != platform(i-1)
//	position = 0.3 first, 0.4 last, 0.2 otherwise
//
// Raw scores are normalized to sum to 1.0. Journeys longer than
// MaxTouchpoints are down-sampled first, which bounds the cost of a score.
type Shapley struct {
	BaseModel
	config ShapleyConfig
}

// NewShapley creates a Shapley model.
func NewShapley(cfg ShapleyConfig) *Shapley {
	if cfg.MaxTouchpoints <= 0 {
		cfg.MaxTouchpoints = 10
	}
	if cfg.MaxTouchpoints < 2 {
		cfg.MaxTouchpoints = 2
	}
	return &Shapley{
		BaseModel: NewBaseModel(attribution.ModelShapley, ""),
		config:    cfg,
	}
}

// Config returns the model configuration.
func (s *Shapley) Config() ShapleyConfig {
	return s.config
}

// Score assigns heuristic Shapley credit to a journey.
func (s *Shapley) Score(j attribution.Journey) attribution.AttributionResult {
	filtered, null := prepareJourney(j, s.modelType, s.version)
	if null != nil {
		return *null
	}

	tps := SampleTouchpoints(filtered.Touchpoints, s.config.MaxTouchpoints)
	position, bonus := heuristicScores(tps)

	raw := make([]float64, len(tps))
	for i := range raw {
		raw[i] = position[i] + bonus[i]
	}
	credits := attribution.NormalizeCredits(raw)

	r := attribution.BuildResult(&filtered, s.modelType, s.version, tps, credits)
	r.ConfidenceScore = attribution.Confidence(&filtered)
	r.Insights = shapleyInsights(&filtered, tps, position, bonus, credits, r.PlatformAttribution)
	return r
}

// SampleTouchpoints keeps at most maxCount touchpoints: the true first and
// last, plus maxCount-2 taken at evenly spaced indices from the middle.
func SampleTouchpoints(tps []attribution.Touchpoint, maxCount int) []attribution.Touchpoint {
	if len(tps) <= maxCount {
		return tps
	}
	if maxCount < 2 {
		maxCount = 2
	}

	out := make([]attribution.Touchpoint, 0, maxCount)
	out = append(out, tps[0])

	middle := maxCount - 2
	step := float64(len(tps)-2) / float64(middle)
	for i := 0; i < middle; i++ {
		out = append(out, tps[int(1+float64(i)*step)])
	}

	return append(out, tps[len(tps)-1])
}

// heuristicScores returns the position weight and the bonus part of each
// touchpoint's raw score.
func heuristicScores(tps []attribution.Touchpoint) (position, bonus []float64) {
	n := len(tps)
	position = make([]float64, n)
	bonus = make([]float64, n)

	counts := make(map[attribution.Platform]int, n)
	for i := range tps {
		counts[tps[i].Platform]++
	}

	for i := range tps {
		switch i {
		case 0:
			position[i] = weightFirstTouch
		case n - 1:
			position[i] = weightLastTouch
		default:
			position[i] = weightMiddleTouch
		}

		if counts[tps[i].Platform] == 1 {
			bonus[i] += bonusExclusive
		}
		if i > 0 && tps[i-1].Platform != tps[i].Platform {
			bonus[i] += bonusTransition
		}
	}
	return position, bonus
}

// synergyEffect is the bonus mass earned by exclusivity and transitions
// relative to the position mass of the scored path, summed over platforms.
func synergyEffect(position, bonus []float64) float64 {
	var positionMass, bonusMass float64
	for i := range position {
		positionMass += position[i]
		bonusMass += bonus[i]
	}
	if positionMass == 0 {
		return 0
	}
	return bonusMass / positionMass
}

func shapleyInsights(
	j *attribution.Journey,
	tps []attribution.Touchpoint,
	position, bonus, credits []float64,
	pa []attribution.PlatformAttribution,
) []string {
	insights := make([]string, 0, 5)

	if text, ok := attribution.TopPlatformInsight(pa); ok {
		insights = append(insights, text)
	}
	if len(pa) > 1 {
		insights = append(insights, fmt.Sprintf("Multi-channel journey: %d platforms worked together", j.UniquePlatforms))
	}
	if text, ok := attribution.DaysToConvertInsight(j); ok {
		insights = append(insights, text)
	}
	if len(pa) > 1 && synergyEffect(position, bonus) > synergyThreshold {
		insights = append(insights, "Strong channel synergy detected - channels work better together")
	}

	if len(tps) >= 2 {
		first, last := credits[0], credits[len(credits)-1]
		switch {
		case first > last*dominanceRatio:
			insights = append(insights, "First touch was more important than last touch - awareness mattered")
		case last > first*dominanceRatio:
			insights = append(insights, "Last touch was more important - conversion-focused campaign won")
		default:
			insights = append(insights, "First and last touch contributed equally - balanced journey")
		}
	}

	return insights
}
