// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package algorithms

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

const creditTolerance = 1e-6

// journeyOf builds a journey with one touchpoint per platform, an hour
// apart. revenue < 0 means no conversion.
func journeyOf(tb testing.TB, user string, revenue float64, platforms ...attribution.Platform) attribution.Journey {
	tb.Helper()

	tps := make([]attribution.Touchpoint, len(platforms))
	for i, p := range platforms {
		tps[i] = attribution.Touchpoint{
			EventID:   fmt.Sprintf("%s-%d", user, i),
			UserID:    user,
			Type:      attribution.EventClick,
			Platform:  p,
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
		}
	}

	var conv *attribution.Conversion
	if revenue >= 0 {
		conv = &attribution.Conversion{
			ConversionID:   "conv-" + user,
			UserID:         user,
			ConversionType: "purchase",
			Timestamp:      t0.Add(time.Duration(len(platforms)) * time.Hour),
			Revenue:        revenue,
		}
	}

	j, err := attribution.BuildJourney(user, tps, conv)
	if err != nil {
		tb.Fatalf("BuildJourney() error = %v", err)
	}
	return j
}

func assertCreditsSumToOne(t *testing.T, r *attribution.AttributionResult) {
	t.Helper()
	if got := r.TotalCredit(); math.Abs(got-1) > creditTolerance {
		t.Errorf("total credit = %v, want 1.0", got)
	}
}

func assertNullResult(t *testing.T, r *attribution.AttributionResult) {
	t.Helper()
	if r.Converted {
		t.Error("Converted = true, want false")
	}
	if len(r.PlatformAttribution) != 0 || len(r.CampaignAttribution) != 0 {
		t.Errorf("attribution lists not empty: %d platforms, %d campaigns",
			len(r.PlatformAttribution), len(r.CampaignAttribution))
	}
	if r.ConversionValue != 0 || r.ConfidenceScore != 0 {
		t.Errorf("value/confidence = %v/%v, want 0/0", r.ConversionValue, r.ConfidenceScore)
	}
}

func hasInsight(r *attribution.AttributionResult, text string) bool {
	for _, i := range r.Insights {
		if i == text {
			return true
		}
	}
	return false
}
