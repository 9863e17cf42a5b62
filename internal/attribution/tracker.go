// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/cache"
	"github.com/tomtom215/pathcredit/internal/metrics"
)

// TopicConversions is the topic ConversionRecorded messages are published on.
const TopicConversions = "attribution.conversions"

// trackerLockStripes is the number of per-user lock stripes.
const trackerLockStripes = 64

// JourneyStore is the persistence the tracker writes through.
// Implemented by the database package.
type JourneyStore interface {
	SaveTouchpoint(ctx context.Context, tp *Touchpoint, journeyID string) error
	CreateOrUpdateJourney(ctx context.Context, j *Journey, tenantID string) error
	ReplaceJourney(ctx context.Context, oldID string, j *Journey, tenantID string) error

	// CloseJourney stores j.Conversion and the converted journey atomically.
	CloseJourney(ctx context.Context, j *Journey, tenantID string) error

	// LookupTouchpoint returns the journey already holding tp (by event id
	// or dedup key) and its touchpoint count, or ErrNotFound.
	LookupTouchpoint(ctx context.Context, tp *Touchpoint) (journeyID string, touchpoints int, err error)

	// LookupConversion returns the journey a stored conversion closed, or
	// ErrNotFound.
	LookupConversion(ctx context.Context, conversionID string) (journeyID string, err error)

	// GetOpenJourneyForUser returns ErrNotFound when the user has no
	// unconverted journey.
	GetOpenJourneyForUser(ctx context.Context, userID string) (*Journey, error)
}

// ConversionRecorded announces a conversion attached to a journey.
type ConversionRecorded struct {
	JourneyID    string    `json:"journey_id"`
	UserID       string    `json:"user_id"`
	ConversionID string    `json:"conversion_id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Revenue      float64   `json:"revenue"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// ConversionPublisher queues conversions for asynchronous analysis.
type ConversionPublisher interface {
	PublishConversion(ctx context.Context, event ConversionRecorded) error
}

// TrackResult is returned by TrackTouchpoint.
type TrackResult struct {
	EventID            string `json:"event_id"`
	JourneyID          string `json:"journey_id"`
	JourneyTouchpoints int    `json:"journey_touchpoints"`
	Duplicate          bool   `json:"duplicate,omitempty"`
}

// ConversionResult is returned by TrackConversion.
type ConversionResult struct {
	ConversionID   string `json:"conversion_id"`
	JourneyID      string `json:"journey_id"`
	AnalysisQueued bool   `json:"analysis_queued"`
	Duplicate      bool   `json:"duplicate,omitempty"`
}

// TrackerConfig configures the tracker's open-journey cache.
type TrackerConfig struct {
	// CacheSize is the maximum number of open journeys cached.
	// Default: 10000.
	CacheSize int

	// CacheTTL bounds how long a cached journey is trusted.
	// Default: 5m.
	CacheTTL time.Duration

	// TenantID is recorded on journeys and published events.
	TenantID string
}

// Tracker ingests touchpoints and conversions into open journeys. Calls
// for the same user are serialized; different users proceed in parallel.
type Tracker struct {
	store     JourneyStore
	publisher ConversionPublisher
	journeys  *cache.LRU[string, Journey]
	tenantID  string
	logger    zerolog.Logger

	locks [trackerLockStripes]sync.Mutex
}

// NewTracker creates a tracker. publisher may be nil, in which case
// conversions are stored but not queued for analysis.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(cfg TrackerConfig, store JourneyStore, publisher ConversionPublisher, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:     store,
		publisher: publisher,
		journeys:  cache.NewLRU[string, Journey](cfg.CacheSize, cfg.CacheTTL),
		tenantID:  cfg.TenantID,
		logger:    logger.With().Str("component", "tracker").Logger(),
	}
}

func (t *Tracker) lockUser(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	mu := &t.locks[h.Sum32()%trackerLockStripes]
	mu.Lock()
	return mu.Unlock
}

// openJourney returns the user's open journey from cache or store.
func (t *Tracker) openJourney(ctx context.Context, userID string) (*Journey, error) {
	if j, ok := t.journeys.Get(userID); ok {
		metrics.RecordCacheLookup(true)
		return &j, nil
	}
	metrics.RecordCacheLookup(false)

	j, err := t.store.GetOpenJourneyForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load open journey: %w", err)
	}
	t.journeys.Add(userID, *j)
	return j, nil
}

// TrackTouchpoint appends tp to the user's open journey, starting a new
// journey when none is open. A touchpoint whose dedup key or event id is
// already stored, in the open journey or an earlier converted one, is
// reported as a duplicate of that journey and not stored again.
//
//nolint:gocritic // hugeParam: tp passed by value for immutability
func (t *Tracker) TrackTouchpoint(ctx context.Context, tp Touchpoint) (TrackResult, error) {
	if err := tp.Validate(); err != nil {
		return TrackResult{}, err
	}
	if tp.UserID == "" {
		return TrackResult{}, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	tp = tp.normalized()

	unlock := t.lockUser(tp.UserID)
	defer unlock()

	current, err := t.openJourney(ctx, tp.UserID)
	if err != nil {
		return TrackResult{}, err
	}

	if current != nil && containsTouchpoint(current, &tp) {
		metrics.RecordTrackedEvent("duplicate")
		return TrackResult{
			EventID:            tp.EventID,
			JourneyID:          current.ID,
			JourneyTouchpoints: current.TotalTouchpoints,
			Duplicate:          true,
		}, nil
	}

	journeyID, count, err := t.store.LookupTouchpoint(ctx, &tp)
	switch {
	case err == nil:
		metrics.RecordTrackedEvent("duplicate")
		return TrackResult{
			EventID:            tp.EventID,
			JourneyID:          journeyID,
			JourneyTouchpoints: count,
			Duplicate:          true,
		}, nil
	case !errors.Is(err, ErrNotFound):
		return TrackResult{}, fmt.Errorf("failed to check for duplicate touchpoint: %w", err)
	}

	var next Journey
	if current == nil {
		next, err = BuildJourney(tp.UserID, []Touchpoint{tp}, nil)
		if err != nil {
			return TrackResult{}, err
		}
		if err := t.store.CreateOrUpdateJourney(ctx, &next, t.tenantID); err != nil {
			return TrackResult{}, fmt.Errorf("failed to create journey: %w", err)
		}
	} else {
		next, err = current.WithTouchpoint(tp)
		if err != nil {
			return TrackResult{}, err
		}
		if next.ID != current.ID {
			err = t.store.ReplaceJourney(ctx, current.ID, &next, t.tenantID)
		} else {
			err = t.store.CreateOrUpdateJourney(ctx, &next, t.tenantID)
		}
		if err != nil {
			t.journeys.Remove(tp.UserID)
			return TrackResult{}, fmt.Errorf("failed to update journey: %w", err)
		}
	}

	if err := t.store.SaveTouchpoint(ctx, &tp, next.ID); err != nil {
		t.journeys.Remove(tp.UserID)
		return TrackResult{}, fmt.Errorf("failed to save touchpoint: %w", err)
	}
	t.journeys.Add(tp.UserID, next)
	metrics.RecordTrackedEvent("touchpoint")

	t.logger.Debug().
		Str("event_id", tp.EventID).
		Str("journey_id", next.ID).
		Int("touchpoints", next.TotalTouchpoints).
		Msg("touchpoint tracked")

	return TrackResult{
		EventID:            tp.EventID,
		JourneyID:          next.ID,
		JourneyTouchpoints: next.TotalTouchpoints,
	}, nil
}

// TrackConversion closes the user's open journey with c and queues it for
// analysis. It returns ErrNoOpenJourney when the user has no open journey.
// A conversion id that is already stored is reported as a duplicate of the
// journey it closed and is not queued again.
//
//nolint:gocritic // hugeParam: c passed by value for immutability
func (t *Tracker) TrackConversion(ctx context.Context, c Conversion) (ConversionResult, error) {
	if err := c.Validate(); err != nil {
		return ConversionResult{}, err
	}

	c = c.normalized()

	unlock := t.lockUser(c.UserID)
	defer unlock()

	journeyID, err := t.store.LookupConversion(ctx, c.ConversionID)
	switch {
	case err == nil:
		metrics.RecordTrackedEvent("duplicate")
		return ConversionResult{ConversionID: c.ConversionID, JourneyID: journeyID, Duplicate: true}, nil
	case !errors.Is(err, ErrNotFound):
		return ConversionResult{}, fmt.Errorf("failed to check for duplicate conversion: %w", err)
	}

	current, err := t.openJourney(ctx, c.UserID)
	if err != nil {
		return ConversionResult{}, err
	}
	if current == nil {
		return ConversionResult{}, fmt.Errorf("%w: %s", ErrNoOpenJourney, c.UserID)
	}

	closed, err := current.WithConversion(c)
	if err != nil {
		return ConversionResult{}, err
	}

	// The journey leaves the open set regardless of what follows.
	t.journeys.Remove(c.UserID)

	if err := t.store.CloseJourney(ctx, &closed, t.tenantID); err != nil {
		return ConversionResult{}, fmt.Errorf("failed to close journey: %w", err)
	}
	metrics.RecordTrackedEvent("conversion")

	result := ConversionResult{ConversionID: c.ConversionID, JourneyID: closed.ID}
	if t.publisher == nil {
		return result, nil
	}

	event := ConversionRecorded{
		JourneyID:    closed.ID,
		UserID:       closed.UserID,
		ConversionID: closed.Conversion.ConversionID,
		TenantID:     t.tenantID,
		Revenue:      closed.Conversion.Revenue,
		RecordedAt:   time.Now().UTC(),
	}
	if err := t.publisher.PublishConversion(ctx, event); err != nil {
		// Stored but not queued; analysis can still be requested explicitly.
		t.logger.Warn().Err(err).Str("journey_id", closed.ID).Msg("failed to queue conversion analysis")
		return result, nil
	}
	result.AnalysisQueued = true

	t.logger.Info().
		Str("journey_id", closed.ID).
		Str("conversion_id", c.ConversionID).
		Float64("revenue", closed.Conversion.Revenue).
		Msg("conversion tracked")

	return result, nil
}

// Invalidate drops any cached open journey for userID.
func (t *Tracker) Invalidate(userID string) {
	t.journeys.Remove(userID)
}

// CacheStats reports open-journey cache effectiveness.
func (t *Tracker) CacheStats() cache.Stats {
	return t.journeys.Stats()
}

func containsTouchpoint(j *Journey, tp *Touchpoint) bool {
	key := tp.DedupKey()
	for i := range j.Touchpoints {
		if j.Touchpoints[i].EventID == tp.EventID || j.Touchpoints[i].DedupKey() == key {
			return true
		}
	}
	return false
}
