// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package algorithms

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// defaultSubsetConversionRate is returned for platform sets never observed.
const defaultSubsetConversionRate = 0.5

// SubsetStats counts journeys and conversions for one platform set.
type SubsetStats struct {
	Platforms []attribution.Platform `json:"platforms"`
	Total     int                    `json:"total"`
	Converted int                    `json:"converted"`
}

// Rate returns converted/total.
func (s SubsetStats) Rate() float64 {
	if s.Total == 0 {
		return defaultSubsetConversionRate
	}
	return float64(s.Converted) / float64(s.Total)
}

// ShapleyBatch is the Shapley heuristic plus empirical conversion rates per
// distinct platform set, learned across many journeys. The rates are
// exposed as P(convert | platform set) and feed the Monte-Carlo estimator;
// they do not change the per-touchpoint heuristic.
type ShapleyBatch struct {
	*Shapley

	trainMu sync.Mutex
	subsets atomic.Pointer[map[string]SubsetStats]
}

// NewShapleyBatch creates a batch Shapley model.
func NewShapleyBatch(cfg ShapleyConfig) *ShapleyBatch {
	return &ShapleyBatch{Shapley: NewShapley(cfg)}
}

// Train accumulates platform-set statistics from journeys on top of what
// was learned before. Learning is cumulative across calls.
func (b *ShapleyBatch) Train(journeys []attribution.Journey) (attribution.TrainingStats, error) {
	if !b.trainMu.TryLock() {
		return attribution.TrainingStats{}, attribution.ErrTrainingInProgress
	}
	defer b.trainMu.Unlock()

	return b.learn(journeys), nil
}

// LearnBatch adds journeys to the platform-set statistics, waiting for any
// running Train to finish.
func (b *ShapleyBatch) LearnBatch(journeys []attribution.Journey) error {
	b.trainMu.Lock()
	defer b.trainMu.Unlock()

	b.learn(journeys)
	return nil
}

// learn must be called with trainMu held.
func (b *ShapleyBatch) learn(journeys []attribution.Journey) attribution.TrainingStats {
	next := make(map[string]SubsetStats)
	if cur := b.subsets.Load(); cur != nil {
		for k, v := range *cur {
			next[k] = v
		}
	}

	for i := range journeys {
		platforms := journeys[i].PlatformSet()
		key := subsetKey(platforms)
		s := next[key]
		s.Platforms = platforms
		s.Total++
		if journeys[i].Converted {
			s.Converted++
		}
		next[key] = s
	}

	b.subsets.Store(&next)
	return attribution.TrainingStats{
		StatesLearned:   len(next),
		JourneysTrained: len(journeys),
	}
}

// IsTrained reports whether any platform set has been observed.
func (b *ShapleyBatch) IsTrained() bool {
	cur := b.subsets.Load()
	return cur != nil && len(*cur) > 0
}

// ConversionProbability returns the learned P(convert | platforms), or 0.5
// for a set never observed. Order and duplicates in platforms are ignored.
func (b *ShapleyBatch) ConversionProbability(platforms []attribution.Platform) float64 {
	cur := b.subsets.Load()
	if cur == nil {
		return defaultSubsetConversionRate
	}
	s, ok := (*cur)[subsetKey(platforms)]
	if !ok {
		return defaultSubsetConversionRate
	}
	return s.Rate()
}

// Subsets returns the learned statistics sorted by descending total.
func (b *ShapleyBatch) Subsets() []SubsetStats {
	cur := b.subsets.Load()
	if cur == nil {
		return nil
	}
	out := make([]SubsetStats, 0, len(*cur))
	for _, s := range *cur {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return subsetKey(out[i].Platforms) < subsetKey(out[j].Platforms)
	})
	return out
}

// subsetKey is the canonical frozen-set key: sorted, de-duplicated names.
func subsetKey(platforms []attribution.Platform) string {
	names := make([]string, 0, len(platforms))
	seen := make(map[attribution.Platform]struct{}, len(platforms))
	for _, p := range platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		names = append(names, string(p))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
