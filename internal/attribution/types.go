// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// EventType classifies a touchpoint interaction.
type EventType string

const (
	EventImpression       EventType = "impression"
	EventVideoView        EventType = "video_view"
	EventClick            EventType = "click"
	EventLandingPageView  EventType = "landing_page_view"
	EventContentView      EventType = "content_view"
	EventLeadFormSubmit   EventType = "lead_form_submit"
	EventAddToCart        EventType = "add_to_cart"
	EventCheckoutStarted  EventType = "checkout_started"
	EventPurchase         EventType = "purchase"
	EventSocialEngagement EventType = "social_engagement"
	EventEmailOpen        EventType = "email_open"
	EventEmailClick       EventType = "email_click"
)

// EventTypes lists every supported event type in declaration order.
var EventTypes = []EventType{
	EventImpression, EventVideoView, EventClick, EventLandingPageView,
	EventContentView, EventLeadFormSubmit, EventAddToCart, EventCheckoutStarted,
	EventPurchase, EventSocialEngagement, EventEmailOpen, EventEmailClick,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEventType converts a stored or submitted string into an EventType.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// Platform identifies the marketing channel a touchpoint came from.
type Platform string

const (
	PlatformMeta          Platform = "meta"
	PlatformGoogleAds     Platform = "google_ads"
	PlatformGoogleSearch  Platform = "google_search"
	PlatformLinkedIn      Platform = "linkedin"
	PlatformTikTok        Platform = "tiktok"
	PlatformPinterest     Platform = "pinterest"
	PlatformTwitter       Platform = "twitter"
	PlatformOrganicSocial Platform = "organic_social"
	PlatformEmail         Platform = "email"
	PlatformDirect        Platform = "direct"
	PlatformReferral      Platform = "referral"
)

// Platforms lists every supported platform in declaration order.
var Platforms = []Platform{
	PlatformMeta, PlatformGoogleAds, PlatformGoogleSearch, PlatformLinkedIn,
	PlatformTikTok, PlatformPinterest, PlatformTwitter, PlatformOrganicSocial,
	PlatformEmail, PlatformDirect, PlatformReferral,
}

var platformDisplayNames = map[Platform]string{
	PlatformMeta:          "Meta",
	PlatformGoogleAds:     "Google Ads",
	PlatformGoogleSearch:  "Google Search",
	PlatformLinkedIn:      "LinkedIn",
	PlatformTikTok:        "TikTok",
	PlatformPinterest:     "Pinterest",
	PlatformTwitter:       "Twitter",
	PlatformOrganicSocial: "Organic Social",
	PlatformEmail:         "Email",
	PlatformDirect:        "Direct",
	PlatformReferral:      "Referral",
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	_, ok := platformDisplayNames[p]
	return ok
}

// DisplayName returns the human-readable platform name used in insights.
func (p Platform) DisplayName() string {
	if name, ok := platformDisplayNames[p]; ok {
		return name
	}
	return string(p)
}

// ParsePlatform converts a stored or submitted string into a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

// DefaultCurrency is applied to touchpoints and conversions that omit one.
const DefaultCurrency = "USD"

// DefaultAttributionWindowDays is the look-back applied when a conversion
// does not carry its own window.
const DefaultAttributionWindowDays = 30

// Touchpoint is one recorded marketing interaction. Values are immutable
// once built; copy before modifying.
type Touchpoint struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"`
	Type      EventType `json:"event_type"`
	Platform  Platform  `json:"platform"`
	Timestamp time.Time `json:"timestamp"`

	CampaignID   string `json:"campaign_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
	AdSetID      string `json:"ad_set_id,omitempty"`
	AdID         string `json:"ad_id,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`

	PageURL     string `json:"page_url,omitempty"`
	ReferrerURL string `json:"referrer_url,omitempty"`
	DeviceType  string `json:"device_type,omitempty"`
	Browser     string `json:"browser,omitempty"`
	OS          string `json:"os,omitempty"`
	Country     string `json:"country,omitempty"`
	Region      string `json:"region,omitempty"`
	City        string `json:"city,omitempty"`

	Revenue  float64 `json:"revenue,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Quantity int     `json:"quantity,omitempty"`

	TimeOnPage      float64 `json:"time_on_page,omitempty"`
	ScrollDepth     float64 `json:"scroll_depth,omitempty"`
	EngagementScore float64 `json:"engagement_score,omitempty"`
	TimeSpent       float64 `json:"time_spent,omitempty"`

	CustomData map[string]any `json:"custom_data,omitempty"`
}

// DedupKey returns the deterministic key identifying the same interaction
// reported more than once: hex(sha256(user|unix_micro|type|platform)).
func (t *Touchpoint) DedupKey() string {
	return hashParts(t.UserID, strconv.FormatInt(t.Timestamp.UnixMicro(), 10), string(t.Type), string(t.Platform))
}

// Validate checks the fields every stored touchpoint must carry.
func (t *Touchpoint) Validate() error {
	switch {
	case t.EventID == "":
		return &ValidationError{Field: "event_id", Reason: "is required"}
	case !t.Type.Valid():
		return &ValidationError{Field: "event_type", Reason: fmt.Sprintf("unknown value %q", t.Type)}
	case !t.Platform.Valid():
		return &ValidationError{Field: "platform", Reason: fmt.Sprintf("unknown value %q", t.Platform)}
	case t.Timestamp.IsZero():
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	return nil
}

// normalized returns a copy with the canonical time, currency and
// collection representation used for hashing and storage.
func (t Touchpoint) normalized() Touchpoint {
	t.Timestamp = canonicalTime(t.Timestamp)
	if t.Currency == "" {
		t.Currency = DefaultCurrency
	}
	if len(t.CustomData) == 0 {
		t.CustomData = nil
	}
	return t
}

// Conversion is the goal outcome credit is assigned toward.
type Conversion struct {
	ConversionID          string         `json:"conversion_id"`
	UserID                string         `json:"user_id"`
	ConversionType        string         `json:"conversion_type"`
	Timestamp             time.Time      `json:"timestamp"`
	Revenue               float64        `json:"revenue"`
	Currency              string         `json:"currency"`
	LifetimeValue         float64        `json:"lifetime_value,omitempty"`
	AttributionWindowDays int            `json:"attribution_window_days"`
	OrderID               string         `json:"order_id,omitempty"`
	ProductIDs            []string       `json:"product_ids,omitempty"`
	ProductNames          []string       `json:"product_names,omitempty"`
	PageURL               string         `json:"page_url,omitempty"`
	DeviceType            string         `json:"device_type,omitempty"`
	Quantity              int            `json:"quantity,omitempty"`
	CustomData            map[string]any `json:"custom_data,omitempty"`
}

// Validate checks the fields every conversion must carry.
func (c *Conversion) Validate() error {
	switch {
	case c.ConversionID == "":
		return &ValidationError{Field: "conversion_id", Reason: "is required"}
	case c.UserID == "":
		return &ValidationError{Field: "user_id", Reason: "is required"}
	case c.ConversionType == "":
		return &ValidationError{Field: "conversion_type", Reason: "is required"}
	case c.Timestamp.IsZero():
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	case c.Revenue < 0:
		return &ValidationError{Field: "revenue", Reason: "must not be negative"}
	case c.AttributionWindowDays < 0:
		return &ValidationError{Field: "attribution_window_days", Reason: "must be positive"}
	}
	return nil
}

// WindowDays returns the attribution window, falling back to the default.
func (c *Conversion) WindowDays() int {
	if c.AttributionWindowDays <= 0 {
		return DefaultAttributionWindowDays
	}
	return c.AttributionWindowDays
}

func (c Conversion) normalized() Conversion {
	c.Timestamp = canonicalTime(c.Timestamp)
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.AttributionWindowDays <= 0 {
		c.AttributionWindowDays = DefaultAttributionWindowDays
	}
	if len(c.ProductIDs) == 0 {
		c.ProductIDs = nil
	}
	if len(c.ProductNames) == 0 {
		c.ProductNames = nil
	}
	if len(c.CustomData) == 0 {
		c.CustomData = nil
	}
	return c
}

// canonicalTime truncates to the microsecond precision of the stores and
// pins the location to UTC so rebuilt journeys compare equal.
func canonicalTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}

func hashParts(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
