// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"fmt"
	"sort"
	"time"
)

// Insight texts shared by every model.
const (
	InsightNotConverted    = "Journey did not convert - no attribution to assign"
	InsightLinearColdStart = "Using linear attribution (model not trained)"
)

// NullResult is the zero-credit result for a journey with nothing to
// attribute. Attribution lists are empty and confidence is 0.
func NullResult(j *Journey, model ModelType, version, insight string) AttributionResult {
	return AttributionResult{
		JourneyID:           j.ID,
		UserID:              j.UserID,
		ModelType:           model,
		ModelVersion:        versionOrDefault(version),
		PlatformAttribution: []PlatformAttribution{},
		CampaignAttribution: []CampaignAttribution{},
		Converted:           false,
		ConversionValue:     0,
		TotalTouchpoints:    j.TotalTouchpoints,
		UniquePlatforms:     j.UniquePlatforms,
		ConfidenceScore:     0,
		Insights:            []string{insight},
		AnalyzedAt:          time.Now().UTC(),
	}
}

// WindowExcludedInsight explains a converted journey whose touchpoints all
// fell outside the attribution window.
func WindowExcludedInsight(windowDays int) string {
	return fmt.Sprintf("No touchpoints within the %d-day attribution window - no attribution to assign", windowDays)
}

// NormalizeCredits scales raw scores to sum to 1.0. A non-positive sum
// splits credit equally.
func NormalizeCredits(raw []float64) []float64 {
	credits := make([]float64, len(raw))
	if len(raw) == 0 {
		return credits
	}

	var total float64
	for _, v := range raw {
		total += v
	}
	if total <= 0 {
		equal := 1.0 / float64(len(raw))
		for i := range credits {
			credits[i] = equal
		}
		return credits
	}
	for i, v := range raw {
		credits[i] = v / total
	}
	return credits
}

// BuildResult aggregates per-touchpoint credits into a converting result.
// credits[i] belongs to tps[i]; tps may be a sample of j.Touchpoints.
// Confidence and insights are left for the caller.
func BuildResult(j *Journey, model ModelType, version string, tps []Touchpoint, credits []float64) AttributionResult {
	revenue := 0.0
	var convDate *time.Time
	if j.Conversion != nil {
		revenue = j.Conversion.Revenue
		ts := j.Conversion.Timestamp
		convDate = &ts
	}

	return AttributionResult{
		JourneyID:           j.ID,
		UserID:              j.UserID,
		ModelType:           model,
		ModelVersion:        versionOrDefault(version),
		PlatformAttribution: platformAttribution(tps, credits, revenue),
		CampaignAttribution: campaignAttribution(tps, credits, revenue),
		Converted:           true,
		ConversionValue:     revenue,
		ConversionDate:      convDate,
		TotalTouchpoints:    j.TotalTouchpoints,
		UniquePlatforms:     j.UniquePlatforms,
		DaysToConvert:       j.DaysToConvert,
		Insights:            []string{},
		AnalyzedAt:          time.Now().UTC(),
	}
}

// Confidence grows with touchpoint count (up to 5) and platform diversity
// (up to 3 platforms) and stays within [0, 1].
func Confidence(j *Journey) float64 {
	if j.TotalTouchpoints == 0 {
		return 0
	}
	touches := min(j.TotalTouchpoints, 5)
	platforms := min(j.UniquePlatforms, 3)
	score := 0.3 + 0.07*float64(touches) + 0.1*float64(platforms)
	if score > 1 {
		return 1
	}
	return score
}

// TopPlatformInsight describes the platform with the most credit.
func TopPlatformInsight(pa []PlatformAttribution) (string, bool) {
	if len(pa) == 0 {
		return "", false
	}
	top := pa[0]
	for i := 1; i < len(pa); i++ {
		if pa[i].Credit > top.Credit {
			top = pa[i]
		}
	}
	return fmt.Sprintf("%s drove %.1f%% of this conversion ($%.2f)",
		top.Platform.DisplayName(), top.Credit*100, top.RevenueAttributed), true
}

// DaysToConvertInsight reports the conversion lag when there is one.
func DaysToConvertInsight(j *Journey) (string, bool) {
	if !j.Converted || j.DaysToConvert <= 0 {
		return "", false
	}
	return fmt.Sprintf("Conversion took %.1f days from first touch", j.DaysToConvert), true
}

// CostBook holds spend per platform and per campaign id over the period
// being analyzed.
type CostBook struct {
	Platforms map[Platform]float64 `json:"platforms,omitempty"`
	Campaigns map[string]float64   `json:"campaigns,omitempty"`
}

// ApplyCosts fills cost, ROI and ROAS where the book has a positive spend.
func ApplyCosts(r *AttributionResult, costs CostBook) {
	for i := range r.PlatformAttribution {
		pa := &r.PlatformAttribution[i]
		if cost, ok := costs.Platforms[pa.Platform]; ok && cost > 0 {
			roi := (pa.RevenueAttributed - cost) / cost
			pa.Cost = &cost
			pa.ROI = &roi
		}
	}
	for i := range r.CampaignAttribution {
		ca := &r.CampaignAttribution[i]
		if cost, ok := costs.Campaigns[ca.CampaignID]; ok && cost > 0 {
			roas := ca.RevenueAttributed / cost
			ca.Cost = &cost
			ca.ROAS = &roas
		}
	}
}

func platformAttribution(tps []Touchpoint, credits []float64, revenue float64) []PlatformAttribution {
	index := make(map[Platform]int)
	out := make([]PlatformAttribution, 0)
	for i := range tps {
		p := tps[i].Platform
		idx, ok := index[p]
		if !ok {
			idx = len(out)
			index[p] = idx
			out = append(out, PlatformAttribution{Platform: p})
		}
		out[idx].Credit += credits[i]
		out[idx].TouchpointCount++
	}
	for i := range out {
		out[i].RevenueAttributed = out[i].Credit * revenue
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Credit > out[b].Credit })
	return out
}

func campaignAttribution(tps []Touchpoint, credits []float64, revenue float64) []CampaignAttribution {
	index := make(map[string]int)
	out := make([]CampaignAttribution, 0)
	last := len(tps) - 1
	for i := range tps {
		tp := &tps[i]
		if tp.CampaignID == "" {
			continue
		}
		idx, ok := index[tp.CampaignID]
		if !ok {
			idx = len(out)
			index[tp.CampaignID] = idx
			out = append(out, CampaignAttribution{
				CampaignID:   tp.CampaignID,
				CampaignName: tp.CampaignName,
				Platform:     tp.Platform,
			})
		}
		ca := &out[idx]
		ca.Credit += credits[i]
		ca.TouchpointCount++
		switch i {
		case 0:
			ca.FirstTouchCount++
		case last:
			ca.LastTouchCount++
		default:
			ca.MiddleTouchCount++
		}
	}
	for i := range out {
		out[i].RevenueAttributed = out[i].Credit * revenue
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Credit > out[b].Credit })
	return out
}

// PlatformSummary is one platform's totals across many results.
type PlatformSummary struct {
	Platform Platform `json:"platform"`
	Credit   float64  `json:"credit"`
	Revenue  float64  `json:"revenue"`
	Count    int      `json:"count"`
}

// CampaignSummary is one campaign's totals across many results.
type CampaignSummary struct {
	CampaignID   string   `json:"campaign_id"`
	CampaignName string   `json:"campaign_name,omitempty"`
	Platform     Platform `json:"platform"`
	Credit       float64  `json:"credit"`
	Revenue      float64  `json:"revenue"`
	Count        int      `json:"count"`
}

// BatchReport aggregates many results for reporting.
type BatchReport struct {
	ModelType        ModelType         `json:"model_type"`
	JourneysAnalyzed int               `json:"journeys_analyzed"`
	Conversions      int               `json:"conversions"`
	TotalRevenue     float64           `json:"total_revenue"`
	Platforms        []PlatformSummary `json:"platforms"`
	Campaigns        []CampaignSummary `json:"campaigns"`
	Insights         []string          `json:"insights"`
}

const (
	reportTopCampaigns = 10
	reportTopInsights  = 5
)

// Aggregate sums platform and campaign credit across results. Platforms are
// sorted by revenue, campaigns are the top 10 by revenue and insights are
// the 5 most frequent distinct texts.
func Aggregate(model ModelType, results []AttributionResult) BatchReport {
	report := BatchReport{
		ModelType:        model,
		JourneysAnalyzed: len(results),
		Platforms:        []PlatformSummary{},
		Campaigns:        []CampaignSummary{},
		Insights:         []string{},
	}

	platforms := make(map[Platform]*PlatformSummary)
	campaigns := make(map[string]*CampaignSummary)
	insightCounts := make(map[string]int)
	var insightOrder []string

	for i := range results {
		r := &results[i]
		if r.Converted {
			report.Conversions++
			report.TotalRevenue += r.ConversionValue
		}
		for _, pa := range r.PlatformAttribution {
			s, ok := platforms[pa.Platform]
			if !ok {
				s = &PlatformSummary{Platform: pa.Platform}
				platforms[pa.Platform] = s
			}
			s.Credit += pa.Credit
			s.Revenue += pa.RevenueAttributed
			s.Count++
		}
		for _, ca := range r.CampaignAttribution {
			s, ok := campaigns[ca.CampaignID]
			if !ok {
				s = &CampaignSummary{CampaignID: ca.CampaignID, CampaignName: ca.CampaignName, Platform: ca.Platform}
				campaigns[ca.CampaignID] = s
			}
			s.Credit += ca.Credit
			s.Revenue += ca.RevenueAttributed
			s.Count++
		}
		for _, text := range r.Insights {
			if insightCounts[text] == 0 {
				insightOrder = append(insightOrder, text)
			}
			insightCounts[text]++
		}
	}

	for _, s := range platforms {
		report.Platforms = append(report.Platforms, *s)
	}
	sort.Slice(report.Platforms, func(a, b int) bool {
		pa, pb := report.Platforms[a], report.Platforms[b]
		if pa.Revenue != pb.Revenue {
			return pa.Revenue > pb.Revenue
		}
		return pa.Platform < pb.Platform
	})

	for _, s := range campaigns {
		report.Campaigns = append(report.Campaigns, *s)
	}
	sort.Slice(report.Campaigns, func(a, b int) bool {
		ca, cb := report.Campaigns[a], report.Campaigns[b]
		if ca.Revenue != cb.Revenue {
			return ca.Revenue > cb.Revenue
		}
		return ca.CampaignID < cb.CampaignID
	})
	if len(report.Campaigns) > reportTopCampaigns {
		report.Campaigns = report.Campaigns[:reportTopCampaigns]
	}

	sort.SliceStable(insightOrder, func(a, b int) bool {
		return insightCounts[insightOrder[a]] > insightCounts[insightOrder[b]]
	})
	if len(insightOrder) > reportTopInsights {
		insightOrder = insightOrder[:reportTopInsights]
	}
	report.Insights = append(report.Insights, insightOrder...)

	return report
}

func versionOrDefault(v string) string {
	if v == "" {
		return DefaultModelVersion
	}
	return v
}
