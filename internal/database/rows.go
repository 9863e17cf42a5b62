// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// This file is the only place rows are converted to and from domain
// values. Column lists and argument order must stay in step.

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// JourneyRecord is the stored summary row of a journey. Counters are
// copied from the in-memory Journey that was last written.
type JourneyRecord struct {
	ID               string                 `json:"journey_id"`
	UserID           string                 `json:"user_id"`
	TenantID         string                 `json:"tenant_id,omitempty"`
	FirstTouchAt     time.Time              `json:"first_touch_at"`
	LastTouchAt      time.Time              `json:"last_touch_at"`
	ConversionAt     *time.Time             `json:"conversion_at,omitempty"`
	TotalTouchpoints int                    `json:"total_touchpoints"`
	UniquePlatforms  int                    `json:"unique_platforms"`
	Platforms        []attribution.Platform `json:"platforms"`
	Converted        bool                   `json:"converted"`
	ConversionID     string                 `json:"conversion_id,omitempty"`
	ConversionValue  float64                `json:"conversion_value"`
	DaysToConvert    float64                `json:"days_to_convert,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// encodeJSON marshals v, storing empty collections as "".
func encodeJSON(v any) (string, error) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return "", nil
		}
	case []string:
		if len(t) == 0 {
			return "", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "", nil
	}
	return string(b), nil
}

// decodeJSON unmarshals s into dst. "" leaves dst untouched.
func decodeJSON(s string, dst any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullTimeValue(t time.Time) sql.NullTime {
	return nullTime(&t)
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// --- touchpoints ---

const touchpointColumns = `event_id, journey_id, user_id, session_id, device_id, event_type, platform,
	event_timestamp, dedup_key, campaign_id, campaign_name, ad_set_id, ad_id,
	utm_source, utm_medium, utm_campaign, utm_content, utm_term,
	page_url, referrer_url, device_type, browser, os, country, region, city,
	revenue, currency, quantity, time_on_page, scroll_depth, engagement_score, time_spent,
	custom_data, created_at`

const touchpointPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
	?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

func touchpointArgs(tp *attribution.Touchpoint, journeyID string, now time.Time) ([]any, error) {
	custom, err := encodeJSON(tp.CustomData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode touchpoint custom data: %w", err)
	}
	currency := tp.Currency
	if currency == "" {
		currency = attribution.DefaultCurrency
	}
	return []any{
		tp.EventID, journeyID, tp.UserID, tp.SessionID, tp.DeviceID, string(tp.Type), string(tp.Platform),
		tp.Timestamp.UTC(), tp.DedupKey(), tp.CampaignID, tp.CampaignName, tp.AdSetID, tp.AdID,
		tp.UTMSource, tp.UTMMedium, tp.UTMCampaign, tp.UTMContent, tp.UTMTerm,
		tp.PageURL, tp.ReferrerURL, tp.DeviceType, tp.Browser, tp.OS, tp.Country, tp.Region, tp.City,
		tp.Revenue, currency, tp.Quantity, tp.TimeOnPage, tp.ScrollDepth, tp.EngagementScore, tp.TimeSpent,
		custom, now,
	}, nil
}

// scanTouchpoint reads a row selected with touchpointColumns. The stored
// journey id is returned separately.
func scanTouchpoint(row rowScanner) (attribution.Touchpoint, string, error) {
	var (
		tp                  attribution.Touchpoint
		journeyID, dedup    string
		eventType, platform string
		custom              string
		createdAt           time.Time
	)
	err := row.Scan(
		&tp.EventID, &journeyID, &tp.UserID, &tp.SessionID, &tp.DeviceID, &eventType, &platform,
		&tp.Timestamp, &dedup, &tp.CampaignID, &tp.CampaignName, &tp.AdSetID, &tp.AdID,
		&tp.UTMSource, &tp.UTMMedium, &tp.UTMCampaign, &tp.UTMContent, &tp.UTMTerm,
		&tp.PageURL, &tp.ReferrerURL, &tp.DeviceType, &tp.Browser, &tp.OS, &tp.Country, &tp.Region, &tp.City,
		&tp.Revenue, &tp.Currency, &tp.Quantity, &tp.TimeOnPage, &tp.ScrollDepth, &tp.EngagementScore, &tp.TimeSpent,
		&custom, &createdAt,
	)
	if err != nil {
		return attribution.Touchpoint{}, "", err
	}

	if tp.Type, err = attribution.ParseEventType(eventType); err != nil {
		return attribution.Touchpoint{}, "", err
	}
	if tp.Platform, err = attribution.ParsePlatform(platform); err != nil {
		return attribution.Touchpoint{}, "", err
	}
	tp.Timestamp = tp.Timestamp.UTC()
	if err := decodeJSON(custom, &tp.CustomData); err != nil {
		return attribution.Touchpoint{}, "", fmt.Errorf("failed to decode touchpoint custom data: %w", err)
	}
	return tp, journeyID, nil
}

// --- conversions ---

const conversionColumns = `conversion_id, journey_id, user_id, conversion_type, converted_at,
	revenue, currency, lifetime_value, attribution_window_days, order_id,
	product_ids, product_names, page_url, device_type, quantity, custom_data, created_at`

const conversionPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

func conversionArgs(c *attribution.Conversion, journeyID string, now time.Time) ([]any, error) {
	productIDs, err := encodeJSON(c.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product ids: %w", err)
	}
	productNames, err := encodeJSON(c.ProductNames)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product names: %w", err)
	}
	custom, err := encodeJSON(c.CustomData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversion custom data: %w", err)
	}
	currency := c.Currency
	if currency == "" {
		currency = attribution.DefaultCurrency
	}
	return []any{
		c.ConversionID, journeyID, c.UserID, c.ConversionType, c.Timestamp.UTC(),
		c.Revenue, currency, c.LifetimeValue, c.WindowDays(), c.OrderID,
		productIDs, productNames, c.PageURL, c.DeviceType, c.Quantity, custom, now,
	}, nil
}

func scanConversion(row rowScanner) (attribution.Conversion, string, error) {
	var (
		c                                attribution.Conversion
		journeyID                        string
		productIDs, productNames, custom string
		createdAt                        time.Time
	)
	err := row.Scan(
		&c.ConversionID, &journeyID, &c.UserID, &c.ConversionType, &c.Timestamp,
		&c.Revenue, &c.Currency, &c.LifetimeValue, &c.AttributionWindowDays, &c.OrderID,
		&productIDs, &productNames, &c.PageURL, &c.DeviceType, &c.Quantity, &custom, &createdAt,
	)
	if err != nil {
		return attribution.Conversion{}, "", err
	}
	c.Timestamp = c.Timestamp.UTC()
	if err := decodeJSON(productIDs, &c.ProductIDs); err != nil {
		return attribution.Conversion{}, "", fmt.Errorf("failed to decode product ids: %w", err)
	}
	if err := decodeJSON(productNames, &c.ProductNames); err != nil {
		return attribution.Conversion{}, "", fmt.Errorf("failed to decode product names: %w", err)
	}
	if err := decodeJSON(custom, &c.CustomData); err != nil {
		return attribution.Conversion{}, "", fmt.Errorf("failed to decode conversion custom data: %w", err)
	}
	return c, journeyID, nil
}

// --- journeys ---

const journeyColumns = `journey_id, user_id, tenant_id, first_touch_at, last_touch_at, conversion_at,
	total_touchpoints, unique_platforms, platforms, converted, conversion_id,
	conversion_value, days_to_convert, created_at, updated_at`

const journeyPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

// journeyArgs derives the summary row from the authoritative in-memory
// journey. The store never recomputes these counters itself.
func journeyArgs(j *attribution.Journey, tenantID string, now time.Time) ([]any, error) {
	platforms := j.PlatformSet()
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	encoded, err := encodeJSON(names)
	if err != nil {
		return nil, fmt.Errorf("failed to encode journey platforms: %w", err)
	}

	var (
		conversionAt    sql.NullTime
		conversionID    string
		conversionValue float64
	)
	if j.Conversion != nil {
		conversionAt = nullTimeValue(j.Conversion.Timestamp)
		conversionID = j.Conversion.ConversionID
		conversionValue = j.Conversion.Revenue
	}

	return []any{
		j.ID, j.UserID, tenantID, j.FirstTouchAt.UTC(), j.LastTouchAt.UTC(), conversionAt,
		j.TotalTouchpoints, j.UniquePlatforms, encoded, j.Converted, conversionID,
		conversionValue, j.DaysToConvert, now, now,
	}, nil
}

func scanJourneyRecord(row rowScanner) (JourneyRecord, error) {
	var (
		r            JourneyRecord
		conversionAt sql.NullTime
		platforms    string
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.TenantID, &r.FirstTouchAt, &r.LastTouchAt, &conversionAt,
		&r.TotalTouchpoints, &r.UniquePlatforms, &platforms, &r.Converted, &r.ConversionID,
		&r.ConversionValue, &r.DaysToConvert, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return JourneyRecord{}, err
	}
	r.FirstTouchAt = r.FirstTouchAt.UTC()
	r.LastTouchAt = r.LastTouchAt.UTC()
	r.ConversionAt = timePtr(conversionAt)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()

	var names []string
	if err := decodeJSON(platforms, &names); err != nil {
		return JourneyRecord{}, fmt.Errorf("failed to decode journey platforms: %w", err)
	}
	r.Platforms = make([]attribution.Platform, 0, len(names))
	for _, n := range names {
		p, err := attribution.ParsePlatform(n)
		if err != nil {
			return JourneyRecord{}, err
		}
		r.Platforms = append(r.Platforms, p)
	}
	return r, nil
}

// --- results ---

const resultColumns = `id, journey_id, user_id, tenant_id, model_type, model_version,
	converted, conversion_value, conversion_date, total_touchpoints, unique_platforms,
	days_to_convert, confidence_score, platform_attribution, campaign_attribution,
	insights, analyzed_at`

const resultPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

func resultArgs(r *attribution.AttributionResult) ([]any, error) {
	platforms, err := encodeJSON(r.PlatformAttribution)
	if err != nil {
		return nil, fmt.Errorf("failed to encode platform attribution: %w", err)
	}
	campaigns, err := encodeJSON(r.CampaignAttribution)
	if err != nil {
		return nil, fmt.Errorf("failed to encode campaign attribution: %w", err)
	}
	insights, err := encodeJSON(r.Insights)
	if err != nil {
		return nil, fmt.Errorf("failed to encode insights: %w", err)
	}
	return []any{
		r.ID, r.JourneyID, r.UserID, r.TenantID, string(r.ModelType), r.ModelVersion,
		r.Converted, r.ConversionValue, nullTime(r.ConversionDate), r.TotalTouchpoints, r.UniquePlatforms,
		r.DaysToConvert, r.ConfidenceScore, platforms, campaigns,
		insights, r.AnalyzedAt.UTC(),
	}, nil
}

func scanResult(row rowScanner) (attribution.AttributionResult, error) {
	var (
		r                              attribution.AttributionResult
		modelType                      string
		conversionDate                 sql.NullTime
		platforms, campaigns, insights string
	)
	err := row.Scan(
		&r.ID, &r.JourneyID, &r.UserID, &r.TenantID, &modelType, &r.ModelVersion,
		&r.Converted, &r.ConversionValue, &conversionDate, &r.TotalTouchpoints, &r.UniquePlatforms,
		&r.DaysToConvert, &r.ConfidenceScore, &platforms, &campaigns,
		&insights, &r.AnalyzedAt,
	)
	if err != nil {
		return attribution.AttributionResult{}, err
	}
	if r.ModelType, err = attribution.ParseModelType(modelType); err != nil {
		return attribution.AttributionResult{}, err
	}
	r.ConversionDate = timePtr(conversionDate)
	r.AnalyzedAt = r.AnalyzedAt.UTC()

	r.PlatformAttribution = []attribution.PlatformAttribution{}
	r.CampaignAttribution = []attribution.CampaignAttribution{}
	r.Insights = []string{}
	if err := decodeJSON(platforms, &r.PlatformAttribution); err != nil {
		return attribution.AttributionResult{}, fmt.Errorf("failed to decode platform attribution: %w", err)
	}
	if err := decodeJSON(campaigns, &r.CampaignAttribution); err != nil {
		return attribution.AttributionResult{}, fmt.Errorf("failed to decode campaign attribution: %w", err)
	}
	if err := decodeJSON(insights, &r.Insights); err != nil {
		return attribution.AttributionResult{}, fmt.Errorf("failed to decode insights: %w", err)
	}
	return r, nil
}

// --- model states ---

const modelStateColumns = `id, model_type, version, tenant_id, trained_at, training_start, training_end,
	journeys_trained, model_params, transition_matrix, state_counts, conversion_probs,
	is_active, is_trained, created_at`

const modelStatePlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

func modelStateArgs(s *attribution.ModelState) ([]any, error) {
	params, err := encodeJSON(s.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model params: %w", err)
	}
	transitions, err := json.Marshal(s.TransitionCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transition matrix: %w", err)
	}
	states, err := json.Marshal(s.StateCounts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state counts: %w", err)
	}
	probs, err := json.Marshal(s.ConversionProbs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversion probabilities: %w", err)
	}
	return []any{
		s.ID, string(s.ModelType), s.Version, s.TenantID, s.TrainedAt.UTC(),
		nullTimeValue(s.TrainingStart), nullTimeValue(s.TrainingEnd),
		s.JourneysTrained, params, string(transitions), string(states), string(probs),
		s.IsActive, s.IsTrained, s.CreatedAt.UTC(),
	}, nil
}

func scanModelState(row rowScanner) (attribution.ModelState, error) {
	var (
		s                                  attribution.ModelState
		modelType                          string
		trainingStart, trainingEnd         sql.NullTime
		params, transitions, states, probs string
	)
	err := row.Scan(
		&s.ID, &modelType, &s.Version, &s.TenantID, &s.TrainedAt, &trainingStart, &trainingEnd,
		&s.JourneysTrained, &params, &transitions, &states, &probs,
		&s.IsActive, &s.IsTrained, &s.CreatedAt,
	)
	if err != nil {
		return attribution.ModelState{}, err
	}
	if s.ModelType, err = attribution.ParseModelType(modelType); err != nil {
		return attribution.ModelState{}, err
	}
	s.TrainedAt = s.TrainedAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	if t := timePtr(trainingStart); t != nil {
		s.TrainingStart = *t
	}
	if t := timePtr(trainingEnd); t != nil {
		s.TrainingEnd = *t
	}
	if err := decodeJSON(params, &s.Params); err != nil {
		return attribution.ModelState{}, fmt.Errorf("failed to decode model params: %w", err)
	}
	if err := decodeJSON(transitions, &s.TransitionCounts); err != nil {
		return attribution.ModelState{}, fmt.Errorf("failed to decode transition matrix: %w", err)
	}
	if err := decodeJSON(states, &s.StateCounts); err != nil {
		return attribution.ModelState{}, fmt.Errorf("failed to decode state counts: %w", err)
	}
	if err := decodeJSON(probs, &s.ConversionProbs); err != nil {
		return attribution.ModelState{}, fmt.Errorf("failed to decode conversion probabilities: %w", err)
	}
	return s, nil
}

// --- batch jobs ---

const batchJobColumns = `id, model_type, tenant_id, status, start_date, end_date, journey_limit,
	total_journeys, processed_journeys, failed_journeys, error_message, report,
	created_at, started_at, completed_at`

const batchJobPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

func encodeBatchReport(report *attribution.BatchReport) (string, error) {
	if report == nil {
		return "", nil
	}
	b, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode batch report: %w", err)
	}
	return string(b), nil
}

func batchJobArgs(job *attribution.BatchJob) ([]any, error) {
	report, err := encodeBatchReport(job.Report)
	if err != nil {
		return nil, err
	}
	return []any{
		job.ID, string(job.ModelType), job.TenantID, string(job.Status),
		nullTime(job.StartDate), nullTime(job.EndDate), job.JourneyLimit,
		job.TotalJourneys, job.ProcessedJourneys, job.FailedJourneys, job.ErrorMessage, report,
		job.CreatedAt.UTC(), nullTime(job.StartedAt), nullTime(job.CompletedAt),
	}, nil
}

func scanBatchJob(row rowScanner) (attribution.BatchJob, error) {
	var (
		job                       attribution.BatchJob
		modelType, status, report string
		startDate, endDate        sql.NullTime
		startedAt, completedAt    sql.NullTime
	)
	err := row.Scan(
		&job.ID, &modelType, &job.TenantID, &status, &startDate, &endDate, &job.JourneyLimit,
		&job.TotalJourneys, &job.ProcessedJourneys, &job.FailedJourneys, &job.ErrorMessage, &report,
		&job.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return attribution.BatchJob{}, err
	}
	if job.ModelType, err = attribution.ParseModelType(modelType); err != nil {
		return attribution.BatchJob{}, err
	}
	job.Status = attribution.BatchJobStatus(status)
	job.StartDate = timePtr(startDate)
	job.EndDate = timePtr(endDate)
	job.StartedAt = timePtr(startedAt)
	job.CompletedAt = timePtr(completedAt)
	job.CreatedAt = job.CreatedAt.UTC()
	if report != "" {
		job.Report = &attribution.BatchReport{}
		if err := decodeJSON(report, job.Report); err != nil {
			return attribution.BatchJob{}, fmt.Errorf("failed to decode batch report: %w", err)
		}
	}
	return job, nil
}
