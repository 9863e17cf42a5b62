// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package algorithms

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// CoalitionValue returns the value of a platform coalition, typically the
// learned P(convert | platform set).
type CoalitionValue interface {
	ConversionProbability(platforms []attribution.Platform) float64
}

// MonteCarloShapleyConfig contains configuration for the Monte-Carlo
// Shapley estimator.
type MonteCarloShapleyConfig struct {
	// Permutations is the number of random platform orderings sampled per
	// journey.
	// Default: 200.
	Permutations int

	// Seed makes results reproducible for identical journeys.
	// Default: 42.
	Seed int64
}

// DefaultMonteCarloShapleyConfig returns default estimator configuration.
func DefaultMonteCarloShapleyConfig() MonteCarloShapleyConfig {
	return MonteCarloShapleyConfig{Permutations: 200, Seed: 42}
}

// MonteCarloShapley estimates true Shapley values over the journey's
// platforms by sampling orderings:
//
//	phi(p) ~= mean over sampled orderings of v(before(p) + p) - v(before(p))
//
// with v(empty) = 0. Negative estimates are clipped to zero before
// normalizing, and a platform's value is split equally across its
// touchpoints.
type MonteCarloShapley struct {
	BaseModel
	config MonteCarloShapleyConfig
	value  CoalitionValue
}

// NewMonteCarloShapley creates an estimator over the given value function.
func NewMonteCarloShapley(cfg MonteCarloShapleyConfig, value CoalitionValue) *MonteCarloShapley {
	if cfg.Permutations <= 0 {
		cfg.Permutations = 200
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return &MonteCarloShapley{
		BaseModel: NewBaseModel(attribution.ModelMonteCarloShapley, ""),
		config:    cfg,
		value:     value,
	}
}

// Score estimates per-platform Shapley values for a journey.
func (m *MonteCarloShapley) Score(j attribution.Journey) attribution.AttributionResult {
	filtered, null := prepareJourney(j, m.modelType, m.version)
	if null != nil {
		return *null
	}

	players := distinctPlatforms(filtered.Touchpoints)
	sort.Slice(players, func(a, b int) bool { return players[a] < players[b] })
	values := m.estimate(players)

	counts := make(map[attribution.Platform]int, len(players))
	for i := range filtered.Touchpoints {
		counts[filtered.Touchpoints[i].Platform]++
	}
	raw := make([]float64, len(filtered.Touchpoints))
	for i := range filtered.Touchpoints {
		p := filtered.Touchpoints[i].Platform
		raw[i] = values[p] / float64(counts[p])
	}
	credits := attribution.NormalizeCredits(raw)

	r := attribution.BuildResult(&filtered, m.modelType, m.version, filtered.Touchpoints, credits)
	r.ConfidenceScore = attribution.Confidence(&filtered)
	if text, ok := attribution.TopPlatformInsight(r.PlatformAttribution); ok {
		r.Insights = append(r.Insights, text)
	}
	r.Insights = append(r.Insights,
		fmt.Sprintf("Estimated from %d sampled orderings of %d channels", m.config.Permutations, len(players)))
	return r
}

// estimate returns clipped Shapley estimates keyed by platform. The RNG is
// local to the call so concurrent scores stay reproducible.
func (m *MonteCarloShapley) estimate(players []attribution.Platform) map[attribution.Platform]float64 {
	values := make(map[attribution.Platform]float64, len(players))
	if len(players) == 1 {
		values[players[0]] = 1
		return values
	}

	rng := rand.New(rand.NewSource(m.config.Seed)) //nolint:gosec // sampling, not security
	order := make([]attribution.Platform, len(players))
	copy(order, players)

	for k := 0; k < m.config.Permutations; k++ {
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		prev := 0.0
		for i := range order {
			cur := m.value.ConversionProbability(order[:i+1])
			values[order[i]] += cur - prev
			prev = cur
		}
	}

	for p, v := range values {
		v /= float64(m.config.Permutations)
		if v < 0 {
			v = 0
		}
		values[p] = v
	}
	return values
}
