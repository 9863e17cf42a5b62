// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package algorithms

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

func TestShapleyBatch_ConversionProbability(t *testing.T) {
	t.Parallel()

	b := NewShapleyBatch(DefaultShapleyConfig())
	if got := b.ConversionProbability([]attribution.Platform{attribution.PlatformMeta}); got != 0.5 {
		t.Errorf("untrained probability = %v, want 0.5", got)
	}

	journeys := []attribution.Journey{
		journeyOf(t, "a", 10, attribution.PlatformMeta, attribution.PlatformEmail),
		journeyOf(t, "b", -1, attribution.PlatformEmail, attribution.PlatformMeta, attribution.PlatformEmail),
		journeyOf(t, "c", 10, attribution.PlatformMeta, attribution.PlatformEmail),
		journeyOf(t, "d", 10, attribution.PlatformMeta, attribution.PlatformEmail),
		journeyOf(t, "e", -1, attribution.PlatformDirect),
	}
	stats, err := b.Train(journeys)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if stats.StatesLearned != 2 {
		t.Errorf("StatesLearned = %d, want 2 platform sets", stats.StatesLearned)
	}

	set := []attribution.Platform{attribution.PlatformEmail, attribution.PlatformMeta, attribution.PlatformEmail}
	if got := b.ConversionProbability(set); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("P(convert | meta, email) = %v, want 0.75", got)
	}
	if got := b.ConversionProbability([]attribution.Platform{attribution.PlatformDirect}); got != 0 {
		t.Errorf("P(convert | direct) = %v, want 0", got)
	}
	if got := b.ConversionProbability([]attribution.Platform{attribution.PlatformTikTok}); got != 0.5 {
		t.Errorf("unseen set probability = %v, want 0.5", got)
	}

	subsets := b.Subsets()
	if len(subsets) != 2 || subsets[0].Total != 4 {
		t.Errorf("Subsets() = %+v", subsets)
	}
}

func TestShapleyBatch_LearnedThroughEngineBatch(t *testing.T) {
	t.Parallel()

	b := NewShapleyBatch(DefaultShapleyConfig())
	engine, err := attribution.NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	engine.RegisterModel(b)

	journeys := []attribution.Journey{
		journeyOf(t, "a", 100, attribution.PlatformMeta, attribution.PlatformGoogleSearch),
		journeyOf(t, "b", -1, attribution.PlatformMeta),
		journeyOf(t, "c", -1, attribution.PlatformMeta),
	}

	results, err := engine.ScoreBatch(context.Background(), attribution.ModelShapley, journeys)
	if err != nil {
		t.Fatalf("ScoreBatch() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	assertCreditsSumToOne(t, &results[0])
	assertNullResult(t, &results[1])

	if !b.IsTrained() {
		t.Fatal("IsTrained() = false after engine batch scoring")
	}
	if got := b.ConversionProbability([]attribution.Platform{attribution.PlatformMeta}); got != 0 {
		t.Errorf("P(convert | meta) = %v, want 0", got)
	}
	pair := []attribution.Platform{attribution.PlatformGoogleSearch, attribution.PlatformMeta}
	if got := b.ConversionProbability(pair); got != 1 {
		t.Errorf("P(convert | meta, google_search) = %v, want 1", got)
	}

	// A second batch accumulates on top of the first.
	if _, err := engine.ScoreBatch(context.Background(), attribution.ModelShapley, journeys[:1]); err != nil {
		t.Fatal(err)
	}
	if s := b.Subsets(); s[0].Total != 2 {
		t.Errorf("Subsets()[0].Total = %d, want 2", s[0].Total)
	}
}

func TestMonteCarloShapley_Reproducible(t *testing.T) {
	t.Parallel()

	b := NewShapleyBatch(DefaultShapleyConfig())
	var training []attribution.Journey
	for i := 0; i < 20; i++ {
		training = append(training,
			journeyOf(t, fmt.Sprintf("a%d", i), 10, attribution.PlatformMeta, attribution.PlatformEmail),
			journeyOf(t, fmt.Sprintf("b%d", i), -1, attribution.PlatformMeta),
			journeyOf(t, fmt.Sprintf("c%d", i), 10, attribution.PlatformEmail),
		)
	}
	if _, err := b.Train(training); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	mc := NewMonteCarloShapley(DefaultMonteCarloShapleyConfig(), b)
	j := journeyOf(t, "scored", 90, attribution.PlatformMeta, attribution.PlatformEmail, attribution.PlatformEmail)

	first := mc.Score(j)
	second := mc.Score(j)

	if first.ModelType != attribution.ModelMonteCarloShapley {
		t.Errorf("ModelType = %s", first.ModelType)
	}
	assertCreditsSumToOne(t, &first)
	for _, p := range []attribution.Platform{attribution.PlatformMeta, attribution.PlatformEmail} {
		if first.CreditFor(p) != second.CreditFor(p) {
			t.Errorf("credit(%s) differs between runs: %v vs %v", p, first.CreditFor(p), second.CreditFor(p))
		}
	}
	// v(meta)=0, v(email)=1, v(meta,email)=1: email carries all the value.
	if got := first.CreditFor(attribution.PlatformEmail); math.Abs(got-1) > 1e-9 {
		t.Errorf("credit(email) = %v, want 1", got)
	}
}

func TestMonteCarloShapley_SinglePlatform(t *testing.T) {
	t.Parallel()

	mc := NewMonteCarloShapley(MonteCarloShapleyConfig{}, NewShapleyBatch(DefaultShapleyConfig()))
	r := mc.Score(journeyOf(t, "u", 30, attribution.PlatformDirect, attribution.PlatformDirect))

	if got := r.CreditFor(attribution.PlatformDirect); math.Abs(got-1) > creditTolerance {
		t.Errorf("credit(direct) = %v, want 1", got)
	}
	if r.PlatformAttribution[0].TouchpointCount != 2 {
		t.Errorf("TouchpointCount = %d, want 2", r.PlatformAttribution[0].TouchpointCount)
	}
}

func TestLinear_Score(t *testing.T) {
	t.Parallel()

	l := NewLinear()
	r := l.Score(journeyOf(t, "u", 120, attribution.PlatformMeta, attribution.PlatformEmail, attribution.PlatformDirect))

	if r.ModelType != attribution.ModelLinear {
		t.Errorf("ModelType = %s", r.ModelType)
	}
	for _, pa := range r.PlatformAttribution {
		if math.Abs(pa.Credit-1.0/3) > 1e-12 || math.Abs(pa.RevenueAttributed-40) > 1e-9 {
			t.Errorf("attribution = %+v, want 1/3 credit and 40 revenue", pa)
		}
	}
	if r.ConfidenceScore == 0.5 {
		t.Error("standalone linear should use journey confidence, not the cold-start constant")
	}

	assertNullResult(t, ptr(l.Score(journeyOf(t, "n", -1, attribution.PlatformMeta))))
}

func ptr[T any](v T) *T {
	return &v
}
