// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 86400

// Journey is the chronologically ordered touchpoints of one user plus at
// most one conversion. Build it with BuildJourney; the derived fields are
// only consistent when produced there.
type Journey struct {
	ID          string       `json:"journey_id"`
	UserID      string       `json:"user_id"`
	Touchpoints []Touchpoint `json:"touchpoints"`
	Conversion  *Conversion  `json:"conversion,omitempty"`

	Converted        bool      `json:"converted"`
	TotalTouchpoints int       `json:"total_touchpoints"`
	UniquePlatforms  int       `json:"unique_platforms"`
	FirstTouchAt     time.Time `json:"first_touch_at"`
	LastTouchAt      time.Time `json:"last_touch_at"`

	// DaysToConvert is zero unless Converted.
	DaysToConvert float64 `json:"days_to_convert,omitempty"`
}

// BuildJourney assembles a Journey from an unordered touchpoint list and an
// optional conversion. The input slice is not modified.
func BuildJourney(userID string, touchpoints []Touchpoint, conversion *Conversion) (Journey, error) {
	if len(touchpoints) == 0 {
		return Journey{}, ErrEmptyJourney
	}
	if conversion != nil {
		if err := conversion.Validate(); err != nil {
			return Journey{}, err
		}
	}

	sorted := make([]Touchpoint, len(touchpoints))
	for i := range touchpoints {
		sorted[i] = touchpoints[i].normalized()
	}
	sortTouchpoints(sorted)

	j := Journey{
		UserID:      userID,
		Touchpoints: sorted,
	}
	if conversion != nil {
		c := conversion.normalized()
		j.Conversion = &c
	}
	j.recompute()
	j.ID = JourneyID(userID, j.FirstTouchAt, j.LastTouchAt)

	return j, nil
}

// JourneyID derives the deterministic journey id for a user and the
// timestamps of its first and last touchpoint.
func JourneyID(userID string, firstTouch, lastTouch time.Time) string {
	return hashParts(
		userID,
		strconv.FormatInt(canonicalTime(firstTouch).UnixMicro(), 10),
		strconv.FormatInt(canonicalTime(lastTouch).UnixMicro(), 10),
	)
}

// FilterWithinAttributionWindow drops touchpoints strictly older than
// conversion.Timestamp - windowDays. Journeys without a conversion and
// non-positive windows are returned unchanged. The filtered journey keeps
// its id; its counters describe the remaining touchpoints, which may be
// none.
func FilterWithinAttributionWindow(j Journey, windowDays int) Journey {
	if j.Conversion == nil || windowDays <= 0 {
		return j
	}

	cutoff := j.Conversion.Timestamp.Add(-time.Duration(windowDays) * 24 * time.Hour)
	kept := make([]Touchpoint, 0, len(j.Touchpoints))
	for i := range j.Touchpoints {
		if !j.Touchpoints[i].Timestamp.Before(cutoff) {
			kept = append(kept, j.Touchpoints[i])
		}
	}
	if len(kept) == len(j.Touchpoints) {
		return j
	}

	j.Touchpoints = kept
	j.recompute()
	return j
}

// WithTouchpoint returns a new journey with tp appended. The id changes
// when tp extends the journey's time span.
func (j Journey) WithTouchpoint(tp Touchpoint) (Journey, error) {
	tps := make([]Touchpoint, 0, len(j.Touchpoints)+1)
	tps = append(tps, j.Touchpoints...)
	tps = append(tps, tp)
	return BuildJourney(j.UserID, tps, j.Conversion)
}

// WithConversion returns a new, closed journey carrying c.
func (j Journey) WithConversion(c Conversion) (Journey, error) {
	return BuildJourney(j.UserID, j.Touchpoints, &c)
}

// TouchpointsByPlatform groups touchpoints by platform, preserving order.
func (j *Journey) TouchpointsByPlatform() map[Platform][]Touchpoint {
	out := make(map[Platform][]Touchpoint)
	for i := range j.Touchpoints {
		p := j.Touchpoints[i].Platform
		out[p] = append(out[p], j.Touchpoints[i])
	}
	return out
}

// ConversionPath returns the platform sequence of the journey.
func (j *Journey) ConversionPath() []Platform {
	path := make([]Platform, len(j.Touchpoints))
	for i := range j.Touchpoints {
		path[i] = j.Touchpoints[i].Platform
	}
	return path
}

// PathString renders the platform sequence as "a > b > c".
func (j *Journey) PathString() string {
	parts := make([]string, len(j.Touchpoints))
	for i := range j.Touchpoints {
		parts[i] = string(j.Touchpoints[i].Platform)
	}
	return strings.Join(parts, " > ")
}

// PlatformSet returns the distinct platforms of the journey, sorted.
func (j *Journey) PlatformSet() []Platform {
	seen := make(map[Platform]struct{}, len(j.Touchpoints))
	out := make([]Platform, 0, len(j.Touchpoints))
	for i := range j.Touchpoints {
		p := j.Touchpoints[i].Platform
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// UniqueCampaigns returns the distinct non-empty campaign ids in order of
// first appearance.
func (j *Journey) UniqueCampaigns() []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range j.Touchpoints {
		id := j.Touchpoints[i].CampaignID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// recompute refreshes every derived field except ID.
func (j *Journey) recompute() {
	j.TotalTouchpoints = len(j.Touchpoints)
	j.Converted = j.Conversion != nil
	j.UniquePlatforms = 0
	j.FirstTouchAt, j.LastTouchAt = time.Time{}, time.Time{}
	j.DaysToConvert = 0

	if len(j.Touchpoints) == 0 {
		return
	}

	seen := make(map[Platform]struct{}, len(j.Touchpoints))
	for i := range j.Touchpoints {
		seen[j.Touchpoints[i].Platform] = struct{}{}
	}
	j.UniquePlatforms = len(seen)
	j.FirstTouchAt = j.Touchpoints[0].Timestamp
	j.LastTouchAt = j.Touchpoints[len(j.Touchpoints)-1].Timestamp

	if j.Conversion != nil {
		j.DaysToConvert = j.Conversion.Timestamp.Sub(j.FirstTouchAt).Seconds() / secondsPerDay
	}
}

// sortTouchpoints orders by timestamp, breaking ties by event id so that
// any input order produces the same sequence.
func sortTouchpoints(tps []Touchpoint) {
	sort.SliceStable(tps, func(a, b int) bool {
		if !tps[a].Timestamp.Equal(tps[b].Timestamp) {
			return tps[a].Timestamp.Before(tps[b].Timestamp)
		}
		return tps[a].EventID < tps[b].EventID
	})
}
