// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/attribution/algorithms"
)

func TestParseDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		endOfDay bool
		expected string
		wantErr  bool
	}{
		{"", false, "", false},
		{"2026-03-01", false, "2026-03-01T00:00:00Z", false},
		{"2026-03-01", true, "2026-03-01T23:59:59.999999Z", false},
		{"03/01/2026", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := parseDay(tt.input, tt.endOfDay)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDay(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.expected == "" {
				if got != nil {
					t.Errorf("parseDay(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if s := got.Format(time.RFC3339Nano); s != tt.expected {
				t.Errorf("parseDay(%q) = %s, want %s", tt.input, s, tt.expected)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags([]string{"-start", "2026-01-01", "-limit", "200", "-report"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.start != "2026-01-01" || opts.limit != 200 || !opts.report {
		t.Errorf("options = %+v", opts)
	}
	if opts.reportModel != string(attribution.ModelMarkov) {
		t.Errorf("reportModel = %q, want markov", opts.reportModel)
	}

	if _, err := parseFlags([]string{"-limit", "many"}); err == nil {
		t.Error("parseFlags() accepted a non-numeric limit")
	}
}

func TestScoreWithProgress(t *testing.T) {
	t.Parallel()

	engine, err := attribution.NewEngine(attribution.DefaultEngineConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	engine.RegisterModel(algorithms.NewLinear())

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	journeys := make([]attribution.Journey, 0, 5)
	for i := 0; i < 5; i++ {
		user := fmt.Sprintf("user-%d", i)
		tps := []attribution.Touchpoint{
			{EventID: user + "-a", UserID: user, Type: attribution.EventClick, Platform: attribution.PlatformMeta, Timestamp: base},
			{EventID: user + "-b", UserID: user, Type: attribution.EventClick, Platform: attribution.PlatformEmail, Timestamp: base.Add(time.Hour)},
		}
		conv := &attribution.Conversion{
			ConversionID:   user + "-c",
			UserID:         user,
			ConversionType: "purchase",
			Timestamp:      base.Add(2 * time.Hour),
			Revenue:        100,
		}
		j, err := attribution.BuildJourney(user, tps, conv)
		if err != nil {
			t.Fatal(err)
		}
		journeys = append(journeys, j)
	}

	var progress bytes.Buffer
	report, err := scoreWithProgress(context.Background(), engine, attribution.ModelLinear, journeys, &progress)
	if err != nil {
		t.Fatalf("scoreWithProgress() error = %v", err)
	}

	if report.JourneysAnalyzed != 5 || report.Conversions != 5 {
		t.Errorf("report = %d analyzed, %d conversions, want 5 and 5", report.JourneysAnalyzed, report.Conversions)
	}
	if math.Abs(report.TotalRevenue-500) > 1e-9 {
		t.Errorf("TotalRevenue = %v, want 500", report.TotalRevenue)
	}
	if len(report.Platforms) != 2 {
		t.Fatalf("got %d platforms, want 2", len(report.Platforms))
	}
	for _, p := range report.Platforms {
		if math.Abs(p.Revenue-250) > 1e-9 {
			t.Errorf("%s revenue = %v, want 250 under linear credit", p.Platform, p.Revenue)
		}
	}
	if progress.Len() == 0 {
		t.Error("no progress output written")
	}
}

func TestScoreWithProgress_UnknownModel(t *testing.T) {
	t.Parallel()

	engine, err := attribution.NewEngine(attribution.DefaultEngineConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	j, err := attribution.BuildJourney("u", []attribution.Touchpoint{{
		EventID: "e", UserID: "u", Type: attribution.EventClick, Platform: attribution.PlatformDirect,
		Timestamp: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := scoreWithProgress(context.Background(), engine, attribution.ModelMarkov, []attribution.Journey{j}, &bytes.Buffer{}); err == nil {
		t.Error("scoreWithProgress() with an unregistered model should fail")
	}
}
