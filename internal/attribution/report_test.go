// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"math"
	"testing"
	"time"
)

func TestNormalizeCredits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []float64
		want []float64
	}{
		{"empty", nil, []float64{}},
		{"proportional", []float64{1, 3}, []float64{0.25, 0.75}},
		{"zero sum splits equally", []float64{0, 0, 0, 0}, []float64{0.25, 0.25, 0.25, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeCredits(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("credits[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildResult_Aggregation(t *testing.T) {
	t.Parallel()

	a := touch("a", PlatformMeta, 0)
	a.CampaignID, a.CampaignName = "spring", "Spring Sale"
	b := touch("b", PlatformGoogleSearch, time.Hour)
	c := touch("c", PlatformMeta, 2*time.Hour)
	c.CampaignID = "spring"

	j, err := BuildJourney("user-1", []Touchpoint{a, b, c}, conversionAt(3*time.Hour, 200))
	if err != nil {
		t.Fatalf("BuildJourney() error = %v", err)
	}

	r := BuildResult(&j, ModelShapley, "", j.Touchpoints, []float64{0.25, 0.25, 0.5})

	if r.ModelVersion != DefaultModelVersion {
		t.Errorf("ModelVersion = %q, want %q", r.ModelVersion, DefaultModelVersion)
	}
	if got := r.TotalCredit(); math.Abs(got-1) > 1e-9 {
		t.Errorf("TotalCredit() = %v, want 1", got)
	}
	if len(r.PlatformAttribution) != 2 {
		t.Fatalf("platforms = %d, want 2", len(r.PlatformAttribution))
	}
	top := r.PlatformAttribution[0]
	if top.Platform != PlatformMeta || math.Abs(top.Credit-0.75) > 1e-9 || top.TouchpointCount != 2 {
		t.Errorf("top platform = %+v, want meta with 0.75 over 2 touchpoints", top)
	}
	if math.Abs(top.RevenueAttributed-150) > 1e-9 {
		t.Errorf("RevenueAttributed = %v, want 150", top.RevenueAttributed)
	}

	if len(r.CampaignAttribution) != 1 {
		t.Fatalf("campaigns = %d, want 1", len(r.CampaignAttribution))
	}
	ca := r.CampaignAttribution[0]
	if ca.FirstTouchCount != 1 || ca.LastTouchCount != 1 || ca.MiddleTouchCount != 0 {
		t.Errorf("touch counts = (%d, %d, %d), want (1, 1, 0)", ca.FirstTouchCount, ca.LastTouchCount, ca.MiddleTouchCount)
	}
	if ca.CampaignName != "Spring Sale" {
		t.Errorf("CampaignName = %q", ca.CampaignName)
	}
	if r.ConversionDate == nil || !r.ConversionDate.Equal(baseTime.Add(3*time.Hour)) {
		t.Errorf("ConversionDate = %v", r.ConversionDate)
	}
}

func TestNullResult(t *testing.T) {
	t.Parallel()

	j, _ := BuildJourney("user-1", []Touchpoint{touch("a", PlatformMeta, 0), touch("b", PlatformEmail, time.Hour)}, nil)
	r := NullResult(&j, ModelShapley, "", InsightNotConverted)

	if r.Converted || r.ConversionValue != 0 || r.ConfidenceScore != 0 {
		t.Errorf("NullResult = %+v, want unconverted zero result", r)
	}
	if r.PlatformAttribution == nil || len(r.PlatformAttribution) != 0 {
		t.Error("PlatformAttribution should be an empty, non-nil list")
	}
	if len(r.Insights) != 1 || r.Insights[0] != InsightNotConverted {
		t.Errorf("Insights = %v", r.Insights)
	}
}

func TestConfidence_MonotonicAndBounded(t *testing.T) {
	t.Parallel()

	prev := 0.0
	for n := 1; n <= 12; n++ {
		j := Journey{TotalTouchpoints: n, UniquePlatforms: min(n, 11)}
		c := Confidence(&j)
		if c < prev {
			t.Errorf("Confidence(%d) = %v decreased from %v", n, c, prev)
		}
		if c < 0 || c > 1 {
			t.Errorf("Confidence(%d) = %v out of [0,1]", n, c)
		}
		prev = c
	}
	if got := Confidence(&Journey{}); got != 0 {
		t.Errorf("Confidence(empty) = %v, want 0", got)
	}
}

func TestApplyCosts(t *testing.T) {
	t.Parallel()

	r := AttributionResult{
		PlatformAttribution: []PlatformAttribution{
			{Platform: PlatformMeta, Credit: 1, RevenueAttributed: 300},
			{Platform: PlatformEmail, Credit: 0, RevenueAttributed: 0},
		},
		CampaignAttribution: []CampaignAttribution{
			{CampaignID: "spring", RevenueAttributed: 300},
		},
	}
	ApplyCosts(&r, CostBook{
		Platforms: map[Platform]float64{PlatformMeta: 100},
		Campaigns: map[string]float64{"spring": 150},
	})

	meta := r.PlatformAttribution[0]
	if meta.Cost == nil || *meta.Cost != 100 || meta.ROI == nil || *meta.ROI != 2 {
		t.Errorf("meta cost/roi = %v/%v, want 100/2", meta.Cost, meta.ROI)
	}
	if r.PlatformAttribution[1].Cost != nil {
		t.Error("platform without spend should have no cost")
	}
	if ca := r.CampaignAttribution[0]; ca.ROAS == nil || *ca.ROAS != 2 {
		t.Errorf("campaign ROAS = %v, want 2", ca.ROAS)
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	results := []AttributionResult{
		{
			Converted:       true,
			ConversionValue: 100,
			PlatformAttribution: []PlatformAttribution{
				{Platform: PlatformMeta, Credit: 0.6, RevenueAttributed: 60},
				{Platform: PlatformEmail, Credit: 0.4, RevenueAttributed: 40},
			},
			CampaignAttribution: []CampaignAttribution{{CampaignID: "c1", Credit: 0.6, RevenueAttributed: 60}},
			Insights:            []string{"x", "y"},
		},
		{
			Converted:       true,
			ConversionValue: 50,
			PlatformAttribution: []PlatformAttribution{
				{Platform: PlatformEmail, Credit: 1, RevenueAttributed: 50},
			},
			Insights: []string{"y"},
		},
		{Converted: false, Insights: []string{InsightNotConverted}},
	}

	report := Aggregate(ModelShapley, results)

	if report.JourneysAnalyzed != 3 || report.Conversions != 2 {
		t.Errorf("counts = (%d, %d), want (3, 2)", report.JourneysAnalyzed, report.Conversions)
	}
	if report.TotalRevenue != 150 {
		t.Errorf("TotalRevenue = %v, want 150", report.TotalRevenue)
	}
	if len(report.Platforms) != 2 || report.Platforms[0].Platform != PlatformEmail {
		t.Fatalf("Platforms = %+v, want email first by revenue", report.Platforms)
	}
	if report.Platforms[0].Revenue != 90 || report.Platforms[0].Count != 2 {
		t.Errorf("email summary = %+v, want revenue 90 count 2", report.Platforms[0])
	}
	if len(report.Insights) != 3 || report.Insights[0] != "y" {
		t.Errorf("Insights = %v, want most frequent first", report.Insights)
	}
}

func TestAggregate_TopCampaignLimit(t *testing.T) {
	t.Parallel()

	var results []AttributionResult
	for i := 0; i < 15; i++ {
		results = append(results, AttributionResult{
			Converted: true,
			CampaignAttribution: []CampaignAttribution{
				{CampaignID: string(rune('a' + i)), RevenueAttributed: float64(i)},
			},
		})
	}

	report := Aggregate(ModelMarkov, results)
	if len(report.Campaigns) != 10 {
		t.Fatalf("Campaigns = %d, want 10", len(report.Campaigns))
	}
	if report.Campaigns[0].Revenue != 14 {
		t.Errorf("top campaign revenue = %v, want 14", report.Campaigns[0].Revenue)
	}
}
