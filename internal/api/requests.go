// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pathcredit/internal/analysis"
	"github.com/tomtom215/pathcredit/internal/attribution"
)

// TrackEventRequest is the body of POST /track/event.
//
// EventID and Timestamp are optional; the server generates an id of the
// form user_unix_hex8 and uses the receive time.
type TrackEventRequest struct {
	EventID   string     `json:"event_id" validate:"omitempty,max=128"`
	UserID    string     `json:"user_id" validate:"required,max=256"`
	SessionID string     `json:"session_id" validate:"omitempty,max=256"`
	DeviceID  string     `json:"device_id" validate:"omitempty,max=256"`
	EventType string     `json:"event_type" validate:"required,event_type"`
	Platform  string     `json:"platform" validate:"required,platform"`
	Timestamp *time.Time `json:"timestamp"`

	CampaignID   string `json:"campaign_id" validate:"omitempty,max=256"`
	CampaignName string `json:"campaign_name" validate:"omitempty,max=512"`
	AdSetID      string `json:"ad_set_id" validate:"omitempty,max=256"`
	AdID         string `json:"ad_id" validate:"omitempty,max=256"`

	UTMSource   string `json:"utm_source" validate:"omitempty,max=256"`
	UTMMedium   string `json:"utm_medium" validate:"omitempty,max=256"`
	UTMCampaign string `json:"utm_campaign" validate:"omitempty,max=256"`
	UTMContent  string `json:"utm_content" validate:"omitempty,max=256"`
	UTMTerm     string `json:"utm_term" validate:"omitempty,max=256"`

	PageURL     string `json:"page_url" validate:"omitempty,url,max=2048"`
	ReferrerURL string `json:"referrer_url" validate:"omitempty,url,max=2048"`
	DeviceType  string `json:"device_type" validate:"omitempty,max=64"`
	Browser     string `json:"browser" validate:"omitempty,max=64"`
	OS          string `json:"os" validate:"omitempty,max=64"`
	Country     string `json:"country" validate:"omitempty,max=64"`
	Region      string `json:"region" validate:"omitempty,max=128"`
	City        string `json:"city" validate:"omitempty,max=128"`

	Revenue  float64 `json:"revenue" validate:"gte=0"`
	Currency string  `json:"currency" validate:"omitempty,iso4217"`
	Quantity int     `json:"quantity" validate:"gte=0"`

	TimeOnPage      float64 `json:"time_on_page" validate:"gte=0"`
	ScrollDepth     float64 `json:"scroll_depth" validate:"gte=0,lte=100"`
	EngagementScore float64 `json:"engagement_score" validate:"gte=0"`
	TimeSpent       float64 `json:"time_spent" validate:"gte=0"`

	CustomData map[string]any `json:"custom_data"`
}

// Touchpoint converts the request, filling the generated fields.
func (req *TrackEventRequest) Touchpoint(now time.Time) attribution.Touchpoint {
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	id := req.EventID
	if id == "" {
		id = generateEventID(req.UserID, ts)
	}
	return attribution.Touchpoint{
		EventID:         id,
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		DeviceID:        req.DeviceID,
		Type:            attribution.EventType(req.EventType),
		Platform:        attribution.Platform(req.Platform),
		Timestamp:       ts,
		CampaignID:      req.CampaignID,
		CampaignName:    req.CampaignName,
		AdSetID:         req.AdSetID,
		AdID:            req.AdID,
		UTMSource:       req.UTMSource,
		UTMMedium:       req.UTMMedium,
		UTMCampaign:     req.UTMCampaign,
		UTMContent:      req.UTMContent,
		UTMTerm:         req.UTMTerm,
		PageURL:         req.PageURL,
		ReferrerURL:     req.ReferrerURL,
		DeviceType:      req.DeviceType,
		Browser:         req.Browser,
		OS:              req.OS,
		Country:         req.Country,
		Region:          req.Region,
		City:            req.City,
		Revenue:         req.Revenue,
		Currency:        strings.ToUpper(req.Currency),
		Quantity:        req.Quantity,
		TimeOnPage:      req.TimeOnPage,
		ScrollDepth:     req.ScrollDepth,
		EngagementScore: req.EngagementScore,
		TimeSpent:       req.TimeSpent,
		CustomData:      req.CustomData,
	}
}

// TrackConversionRequest is the body of POST /track/conversion.
type TrackConversionRequest struct {
	ConversionID          string         `json:"conversion_id" validate:"omitempty,max=128"`
	UserID                string         `json:"user_id" validate:"required,max=256"`
	ConversionType        string         `json:"conversion_type" validate:"required,max=64"`
	Revenue               float64        `json:"revenue" validate:"gte=0"`
	Currency              string         `json:"currency" validate:"omitempty,iso4217"`
	LifetimeValue         float64        `json:"lifetime_value" validate:"gte=0"`
	Timestamp             *time.Time     `json:"timestamp"`
	AttributionWindowDays int            `json:"attribution_window_days" validate:"omitempty,min=1,max=365"`
	OrderID               string         `json:"order_id" validate:"omitempty,max=256"`
	ProductIDs            []string       `json:"product_ids" validate:"omitempty,max=500"`
	ProductNames          []string       `json:"product_names" validate:"omitempty,max=500"`
	PageURL               string         `json:"page_url" validate:"omitempty,url,max=2048"`
	DeviceType            string         `json:"device_type" validate:"omitempty,max=64"`
	Quantity              int            `json:"quantity" validate:"gte=0"`
	CustomData            map[string]any `json:"custom_data"`
}

// Conversion converts the request, filling the generated fields.
// windowDays applies when the request names no window.
func (req *TrackConversionRequest) Conversion(now time.Time, windowDays int) attribution.Conversion {
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	id := req.ConversionID
	if id == "" {
		id = generateEventID(req.UserID, ts)
	}
	window := req.AttributionWindowDays
	if window == 0 {
		window = windowDays
	}
	return attribution.Conversion{
		ConversionID:          id,
		UserID:                req.UserID,
		ConversionType:        req.ConversionType,
		Timestamp:             ts,
		Revenue:               req.Revenue,
		Currency:              strings.ToUpper(req.Currency),
		LifetimeValue:         req.LifetimeValue,
		AttributionWindowDays: window,
		OrderID:               req.OrderID,
		ProductIDs:            req.ProductIDs,
		ProductNames:          req.ProductNames,
		PageURL:               req.PageURL,
		DeviceType:            req.DeviceType,
		Quantity:              req.Quantity,
		CustomData:            req.CustomData,
	}
}

// AnalyzeJourneyRequest is the body of POST /analyze/journey.
type AnalyzeJourneyRequest struct {
	JourneyID string `json:"journey_id" validate:"required,max=128"`
	ModelType string `json:"model_type" validate:"omitempty,model_type"`
}

// AnalyzeBatchRequest is the body of POST /analyze/batch.
type AnalyzeBatchRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	ModelType string     `json:"model_type" validate:"omitempty,model_type"`
	Limit     int        `json:"limit" validate:"omitempty,min=1,max=10000"`
}

// BatchRequest converts the request for the analysis service.
func (req *AnalyzeBatchRequest) BatchRequest() analysis.BatchRequest {
	return analysis.BatchRequest{
		ModelType: attribution.ModelType(req.ModelType),
		Start:     req.StartDate,
		End:       req.EndDate,
		Limit:     req.Limit,
	}
}

// TrainMarkovRequest is the body of POST /train/markov.
type TrainMarkovRequest struct {
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	MinTouchpoints int        `json:"min_touchpoints" validate:"omitempty,min=1,max=100"`
	Limit          int        `json:"limit" validate:"omitempty,min=1,max=100000"`
}

// TrainRequest converts the request for the analysis service.
func (req *TrainMarkovRequest) TrainRequest() analysis.TrainRequest {
	return analysis.TrainRequest{
		Start:          req.StartDate,
		End:            req.EndDate,
		MinTouchpoints: req.MinTouchpoints,
		Limit:          req.Limit,
	}
}

// generateEventID builds user_unix_hex8 ids for events submitted without one.
func generateEventID(userID string, ts time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", userID, ts.Unix(), suffix)
}

// dateRangeError reports an end date before the start date, or "".
func dateRangeError(start, end *time.Time) string {
	if start != nil && end != nil && !end.After(*start) {
		return "end_date must be after start_date"
	}
	return ""
}
