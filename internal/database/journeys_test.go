// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

func richJourney(t *testing.T) attribution.Journey {
	t.Helper()

	first := sampleTouchpoint("evt-1", "user-rt", attribution.PlatformMeta, 0)
	first.SessionID = "sess-1"
	first.CampaignID = "camp-spring"
	first.CampaignName = "Spring Sale"
	first.UTMSource = "facebook"
	first.UTMMedium = "paid_social"
	first.PageURL = "https://shop.example/landing"
	first.Country = "DE"
	first.ScrollDepth = 0.75
	first.CustomData = map[string]any{"creative": "video-a", "score": 4.5}

	second := sampleTouchpoint("evt-2", "user-rt", attribution.PlatformGoogleSearch, 26*time.Hour)
	second.Type = attribution.EventLandingPageView
	second.ReferrerURL = "https://www.google.com/"
	second.TimeOnPage = 42.5

	third := sampleTouchpoint("evt-3", "user-rt", attribution.PlatformEmail, 50*time.Hour)
	third.Type = attribution.EventEmailClick
	third.Currency = "EUR"
	third.Revenue = 0

	conv := sampleConversion("conv-rt", "user-rt", 52*time.Hour, 249.90)
	conv.Currency = "EUR"
	conv.OrderID = "order-77"
	conv.ProductIDs = []string{"sku-1", "sku-2"}
	conv.ProductNames = []string{"Boots", "Laces"}
	conv.AttributionWindowDays = 14
	conv.LifetimeValue = 900
	conv.CustomData = map[string]any{"coupon": "SPRING10"}

	j, err := attribution.BuildJourney("user-rt", []attribution.Touchpoint{third, first, second}, conv)
	if err != nil {
		t.Fatalf("BuildJourney() error = %v", err)
	}
	return j
}

func TestBuildJourneyFromDB_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	want := richJourney(t)
	persistJourney(t, db, &want)

	got, err := db.BuildJourneyFromDB(ctx, want.ID)
	if err != nil {
		t.Fatalf("BuildJourneyFromDB() error = %v", err)
	}

	if !reflect.DeepEqual(*got, want) {
		t.Errorf("BuildJourneyFromDB() = %+v\nwant %+v", *got, want)
		for i := range want.Touchpoints {
			if !reflect.DeepEqual(got.Touchpoints[i], want.Touchpoints[i]) {
				t.Errorf("touchpoint %d = %+v\nwant %+v", i, got.Touchpoints[i], want.Touchpoints[i])
			}
		}
		if !reflect.DeepEqual(got.Conversion, want.Conversion) {
			t.Errorf("conversion = %+v\nwant %+v", got.Conversion, want.Conversion)
		}
	}
}

func TestCreateOrUpdateJourney_StoresCounters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	j := richJourney(t)
	if err := db.CreateOrUpdateJourney(ctx, &j, "tenant-a"); err != nil {
		t.Fatalf("CreateOrUpdateJourney() error = %v", err)
	}

	rec, err := db.GetJourney(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJourney() error = %v", err)
	}
	if rec.UserID != "user-rt" || rec.TenantID != "tenant-a" {
		t.Errorf("identity = %s/%s", rec.UserID, rec.TenantID)
	}
	if rec.TotalTouchpoints != 3 || rec.UniquePlatforms != 3 || len(rec.Platforms) != 3 {
		t.Errorf("counters = %d touchpoints, %d platforms %v", rec.TotalTouchpoints, rec.UniquePlatforms, rec.Platforms)
	}
	if !rec.Converted || rec.ConversionID != "conv-rt" || rec.ConversionValue != 249.90 {
		t.Errorf("conversion fields = %v %q %v", rec.Converted, rec.ConversionID, rec.ConversionValue)
	}
	if rec.ConversionAt == nil || !rec.ConversionAt.Equal(j.Conversion.Timestamp) {
		t.Errorf("ConversionAt = %v, want %v", rec.ConversionAt, j.Conversion.Timestamp)
	}
	if !rec.FirstTouchAt.Equal(j.FirstTouchAt) || !rec.LastTouchAt.Equal(j.LastTouchAt) {
		t.Errorf("touch range = %v..%v", rec.FirstTouchAt, rec.LastTouchAt)
	}

	// An update with an open copy rewrites the counters from the input.
	open := j
	open.Conversion = nil
	open.Converted = false
	open.DaysToConvert = 0
	if err := db.CreateOrUpdateJourney(ctx, &open, "tenant-a"); err != nil {
		t.Fatal(err)
	}
	rec, err = db.GetJourney(ctx, j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Converted || rec.ConversionAt != nil || rec.ConversionID != "" {
		t.Errorf("after reopening: converted=%v conversion_at=%v id=%q", rec.Converted, rec.ConversionAt, rec.ConversionID)
	}
}

func TestGetJourney_NotFound(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.GetJourney(context.Background(), "missing"); !errors.Is(err, attribution.ErrNotFound) {
		t.Errorf("GetJourney(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := db.BuildJourneyFromDB(context.Background(), "missing"); !errors.Is(err, attribution.ErrNotFound) {
		t.Errorf("BuildJourneyFromDB(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReplaceJourney_ReKeys(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tp1 := sampleTouchpoint("e1", "user-2", attribution.PlatformMeta, 0)
	j1, err := attribution.BuildJourney("user-2", []attribution.Touchpoint{tp1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	persistJourney(t, db, &j1)

	tp2 := sampleTouchpoint("e2", "user-2", attribution.PlatformLinkedIn, time.Hour)
	j2, err := j1.WithTouchpoint(tp2)
	if err != nil {
		t.Fatal(err)
	}
	if j2.ID == j1.ID {
		t.Fatal("extending the journey should change its id")
	}

	if err := db.ReplaceJourney(ctx, j1.ID, &j2, ""); err != nil {
		t.Fatalf("ReplaceJourney() error = %v", err)
	}
	if err := db.SaveTouchpoint(ctx, &tp2, j2.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetJourney(ctx, j1.ID); !errors.Is(err, attribution.ErrNotFound) {
		t.Errorf("old journey still present: %v", err)
	}
	tps, err := db.GetTouchpointsForJourney(ctx, j2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tps) != 2 || tps[0].EventID != "e1" || tps[1].EventID != "e2" {
		t.Errorf("touchpoints for new id = %v", tps)
	}

	rebuilt, err := db.BuildJourneyFromDB(ctx, j2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.ID != j2.ID || rebuilt.TotalTouchpoints != 2 {
		t.Errorf("rebuilt = %s with %d touchpoints", rebuilt.ID, rebuilt.TotalTouchpoints)
	}
}

func TestSaveTouchpoint_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tp := sampleTouchpoint("dup", "user-3", attribution.PlatformDirect, 0)
	for i := 0; i < 3; i++ {
		if err := db.SaveTouchpoint(ctx, &tp, "journey-a"); err != nil {
			t.Fatalf("SaveTouchpoint() #%d error = %v", i, err)
		}
	}
	tps, err := db.GetTouchpointsForUser(ctx, "user-3", time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tps) != 1 {
		t.Errorf("stored %d touchpoints, want 1", len(tps))
	}

	invalid := attribution.Touchpoint{EventID: "bad", Platform: "myspace", Type: attribution.EventClick, Timestamp: baseTime}
	if err := db.SaveTouchpoint(ctx, &invalid, "journey-a"); !attribution.IsValidation(err) {
		t.Errorf("SaveTouchpoint(invalid) error = %v, want validation error", err)
	}
}

func TestGetTouchpointsForUser_Range(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i, p := range []attribution.Platform{attribution.PlatformMeta, attribution.PlatformEmail, attribution.PlatformDirect} {
		tp := sampleTouchpoint(string(rune('a'+i)), "user-4", p, time.Duration(i)*24*time.Hour)
		if err := db.SaveTouchpoint(ctx, &tp, "j"); err != nil {
			t.Fatal(err)
		}
	}

	tps, err := db.GetTouchpointsForUser(ctx, "user-4", baseTime.Add(12*time.Hour), baseTime.Add(36*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(tps) != 1 || tps[0].Platform != attribution.PlatformEmail {
		t.Errorf("GetTouchpointsForUser(range) = %v, want only the email touchpoint", tps)
	}
}

func TestGetOpenJourneyForUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetOpenJourneyForUser(ctx, "user-5"); !errors.Is(err, attribution.ErrNotFound) {
		t.Fatalf("GetOpenJourneyForUser(empty) error = %v, want ErrNotFound", err)
	}

	j, err := attribution.BuildJourney("user-5", []attribution.Touchpoint{
		sampleTouchpoint("o1", "user-5", attribution.PlatformTikTok, 0),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	persistJourney(t, db, &j)

	open, err := db.GetOpenJourneyForUser(ctx, "user-5")
	if err != nil {
		t.Fatalf("GetOpenJourneyForUser() error = %v", err)
	}
	if open.ID != j.ID {
		t.Errorf("open journey = %s, want %s", open.ID, j.ID)
	}

	closed, err := j.WithConversion(*sampleConversion("c5", "user-5", time.Hour, 10))
	if err != nil {
		t.Fatal(err)
	}
	persistJourney(t, db, &closed)

	if _, err := db.GetOpenJourneyForUser(ctx, "user-5"); !errors.Is(err, attribution.ErrNotFound) {
		t.Errorf("GetOpenJourneyForUser(after conversion) error = %v, want ErrNotFound", err)
	}
}

func TestGetRecentJourneys_Filter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	converted, err := attribution.BuildJourney("u-a", []attribution.Touchpoint{
		sampleTouchpoint("ra1", "u-a", attribution.PlatformMeta, 0),
		sampleTouchpoint("ra2", "u-a", attribution.PlatformEmail, time.Hour),
	}, sampleConversion("rc1", "u-a", 2*time.Hour, 50))
	if err != nil {
		t.Fatal(err)
	}
	open, err := attribution.BuildJourney("u-b", []attribution.Touchpoint{
		sampleTouchpoint("rb1", "u-b", attribution.PlatformDirect, 72*time.Hour),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	persistJourney(t, db, &converted)
	persistJourney(t, db, &open)

	tests := []struct {
		name   string
		filter attribution.JourneyFilter
		want   []string
	}{
		{"all newest first", attribution.JourneyFilter{}, []string{open.ID, converted.ID}},
		{"converted only", attribution.JourneyFilter{ConvertedOnly: true}, []string{converted.ID}},
		{"limit", attribution.JourneyFilter{Limit: 1}, []string{open.ID}},
		{"min touchpoints", attribution.JourneyFilter{MinTouchpoints: 2}, []string{converted.ID}},
		{"date range", attribution.JourneyFilter{Start: baseTime.Add(48 * time.Hour)}, []string{open.ID}},
		{"tenant", attribution.JourneyFilter{TenantID: "other"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := db.GetRecentJourneys(ctx, tt.filter)
			if err != nil {
				t.Fatalf("GetRecentJourneys() error = %v", err)
			}
			var got []string
			for _, r := range recs {
				got = append(got, r.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetRecentJourneys(%+v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}

	journeys, err := db.LoadJourneys(ctx, attribution.JourneyFilter{ConvertedOnly: true})
	if err != nil {
		t.Fatalf("LoadJourneys() error = %v", err)
	}
	if len(journeys) != 1 || !journeys[0].Converted || journeys[0].Conversion.Revenue != 50 {
		t.Errorf("LoadJourneys() = %+v", journeys)
	}
}

// recordingPublisher captures queued conversions.
type recordingPublisher struct {
	events []attribution.ConversionRecorded
}

func (p *recordingPublisher) PublishConversion(_ context.Context, e attribution.ConversionRecorded) error {
	p.events = append(p.events, e)
	return nil
}

func TestTracker_WithDatabaseStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pub := &recordingPublisher{}
	tracker := attribution.NewTracker(attribution.TrackerConfig{CacheSize: 16, CacheTTL: time.Minute}, db, pub, zerolog.Nop())

	var last attribution.TrackResult
	for i, p := range []attribution.Platform{attribution.PlatformMeta, attribution.PlatformGoogleSearch, attribution.PlatformLinkedIn} {
		res, err := tracker.TrackTouchpoint(ctx, sampleTouchpoint(string(rune('x'+i)), "user-t", p, time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("TrackTouchpoint(%d) error = %v", i, err)
		}
		last = res
	}
	if last.JourneyTouchpoints != 3 {
		t.Fatalf("journey touchpoints = %d, want 3", last.JourneyTouchpoints)
	}

	// Drop the cache so the conversion reads the open journey from the store.
	tracker.Invalidate("user-t")

	conv, err := tracker.TrackConversion(ctx, *sampleConversion("conv-t", "user-t", 3*time.Hour, 300))
	if err != nil {
		t.Fatalf("TrackConversion() error = %v", err)
	}
	if conv.JourneyID != last.JourneyID || !conv.AnalysisQueued || len(pub.events) != 1 {
		t.Errorf("TrackConversion() = %+v, events %d", conv, len(pub.events))
	}

	j, err := db.BuildJourneyFromDB(ctx, conv.JourneyID)
	if err != nil {
		t.Fatalf("BuildJourneyFromDB() error = %v", err)
	}
	if !j.Converted || j.TotalTouchpoints != 3 || j.UniquePlatforms != 3 {
		t.Errorf("stored journey = converted %v, %d touchpoints, %d platforms", j.Converted, j.TotalTouchpoints, j.UniquePlatforms)
	}
	recs, err := db.GetRecentJourneys(ctx, attribution.JourneyFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("stored %d journey rows, want 1 after re-keying", len(recs))
	}
}

func TestTracker_WithDatabaseStore_Redelivery(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pub := &recordingPublisher{}
	tracker := attribution.NewTracker(attribution.TrackerConfig{CacheSize: 16, CacheTTL: time.Minute}, db, pub, zerolog.Nop())

	first := sampleTouchpoint("r-1", "user-r", attribution.PlatformMeta, 0)
	second := sampleTouchpoint("r-2", "user-r", attribution.PlatformEmail, 2*time.Hour)
	for _, tp := range []attribution.Touchpoint{first, second} {
		if _, err := tracker.TrackTouchpoint(ctx, tp); err != nil {
			t.Fatalf("TrackTouchpoint(%s) error = %v", tp.EventID, err)
		}
	}
	conv, err := tracker.TrackConversion(ctx, *sampleConversion("conv-r", "user-r", 3*time.Hour, 75))
	if err != nil {
		t.Fatalf("TrackConversion() error = %v", err)
	}

	renamed := second
	renamed.EventID = "r-2-resent"
	for _, tp := range []attribution.Touchpoint{second, renamed} {
		res, err := tracker.TrackTouchpoint(ctx, tp)
		if err != nil {
			t.Fatalf("TrackTouchpoint(%s) redelivery error = %v", tp.EventID, err)
		}
		if !res.Duplicate || res.JourneyID != conv.JourneyID || res.JourneyTouchpoints != 2 {
			t.Errorf("TrackTouchpoint(%s) = %+v, want duplicate of %s", tp.EventID, res, conv.JourneyID)
		}
	}

	again, err := tracker.TrackConversion(ctx, *sampleConversion("conv-r", "user-r", 4*time.Hour, 75))
	if err != nil {
		t.Fatalf("TrackConversion() redelivery error = %v", err)
	}
	if !again.Duplicate || again.JourneyID != conv.JourneyID || len(pub.events) != 1 {
		t.Errorf("redelivered conversion = %+v, events %d", again, len(pub.events))
	}

	j, err := db.BuildJourneyFromDB(ctx, conv.JourneyID)
	if err != nil {
		t.Fatalf("BuildJourneyFromDB() error = %v", err)
	}
	if !j.Converted || j.TotalTouchpoints != 2 || j.ID != conv.JourneyID {
		t.Errorf("converted journey = %s converted %v with %d touchpoints", j.ID, j.Converted, j.TotalTouchpoints)
	}
	recs, err := db.GetRecentJourneys(ctx, attribution.JourneyFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("stored %d journey rows, want 1", len(recs))
	}
}

func TestSaveTouchpoint_KeepsOwningJourney(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tp := sampleTouchpoint("owned", "user-o", attribution.PlatformDirect, 0)
	if err := db.SaveTouchpoint(ctx, &tp, "journey-a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveTouchpoint(ctx, &tp, "journey-b"); err != nil {
		t.Fatal(err)
	}

	journeyID, _, err := db.LookupTouchpoint(ctx, &tp)
	if err != nil {
		t.Fatalf("LookupTouchpoint() error = %v", err)
	}
	if journeyID != "journey-a" {
		t.Errorf("LookupTouchpoint() journey = %q, want journey-a", journeyID)
	}

	byKey := tp
	byKey.EventID = "owned-resent"
	if journeyID, _, err = db.LookupTouchpoint(ctx, &byKey); err != nil || journeyID != "journey-a" {
		t.Errorf("LookupTouchpoint(same dedup key) = %q, %v; want journey-a", journeyID, err)
	}

	other := sampleTouchpoint("other", "user-o", attribution.PlatformDirect, time.Minute)
	if _, _, err := db.LookupTouchpoint(ctx, &other); !errors.Is(err, attribution.ErrNotFound) {
		t.Errorf("LookupTouchpoint(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestCloseJourney(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tps := []attribution.Touchpoint{sampleTouchpoint("c-1", "user-c", attribution.PlatformLinkedIn, 0)}
	j, err := attribution.BuildJourney("user-c", tps, sampleConversion("conv-c", "user-c", time.Hour, 30))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("failure rolls back the conversion", func(t *testing.T) {
		broken := j
		broken.ID = ""
		if err := db.CloseJourney(ctx, &broken, ""); !attribution.IsValidation(err) {
			t.Fatalf("CloseJourney(no id) error = %v, want validation error", err)
		}
		if _, err := db.LookupConversion(ctx, "conv-c"); !errors.Is(err, attribution.ErrNotFound) {
			t.Errorf("LookupConversion() error = %v, want ErrNotFound after rollback", err)
		}
	})

	t.Run("stores conversion and journey", func(t *testing.T) {
		persistJourney(t, db, &j)
		journeyID, err := db.LookupConversion(ctx, "conv-c")
		if err != nil || journeyID != j.ID {
			t.Errorf("LookupConversion() = %q, %v; want %q", journeyID, err, j.ID)
		}
		rec, err := db.GetJourney(ctx, j.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !rec.Converted || rec.ConversionID != "conv-c" {
			t.Errorf("journey row = converted %v, conversion %q", rec.Converted, rec.ConversionID)
		}
	})

	t.Run("requires a conversion", func(t *testing.T) {
		open := j
		open.Conversion = nil
		if err := db.CloseJourney(ctx, &open, ""); !attribution.IsValidation(err) {
			t.Errorf("CloseJourney(no conversion) error = %v, want validation error", err)
		}
	})
}

func TestBuildJourneyFromDB_MissingConversion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tps := []attribution.Touchpoint{
		sampleTouchpoint("m-1", "user-m", attribution.PlatformMeta, 0),
		sampleTouchpoint("m-2", "user-m", attribution.PlatformEmail, time.Hour),
	}
	j, err := attribution.BuildJourney("user-m", tps, sampleConversion("conv-gone", "user-m", 2*time.Hour, 10))
	if err != nil {
		t.Fatal(err)
	}
	// Journey row and touchpoints without the conversion row.
	if err := db.CreateOrUpdateJourney(ctx, &j, ""); err != nil {
		t.Fatal(err)
	}
	for i := range j.Touchpoints {
		if err := db.SaveTouchpoint(ctx, &j.Touchpoints[i], j.ID); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := db.BuildJourneyFromDB(ctx, j.ID); !errors.Is(err, ErrMissingConversion) {
		t.Errorf("BuildJourneyFromDB() error = %v, want ErrMissingConversion", err)
	}
	loaded, err := db.LoadJourneys(ctx, attribution.JourneyFilter{})
	if err != nil {
		t.Fatalf("LoadJourneys() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("LoadJourneys() returned %d journeys, want the broken one skipped", len(loaded))
	}
}
