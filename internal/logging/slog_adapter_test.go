// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Handle(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))

	logger.Warn("service restarted",
		"service", "markov-trainer",
		"attempt", 3,
		"backoff", 2*time.Second,
		"healthy", false,
		"err", errors.New("panic recovered"),
	)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "warn" || m["message"] != "service restarted" {
		t.Errorf("entry = %v", m)
	}
	if m["service"] != "markov-trainer" || m["attempt"] != float64(3) || m["healthy"] != false {
		t.Errorf("attributes = %v", m)
	}
	if m["err"] != "panic recovered" {
		t.Errorf("err = %v, want panic recovered", m["err"])
	}
}

func TestSlogHandler_GroupsAndAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf))).
		With("supervisor", "root").
		WithGroup("svc")

	logger.Info("started", "name", "http", slog.Group("limits", "failures", 5))

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["supervisor"] != "root" {
		t.Errorf("supervisor = %v, want root", m["supervisor"])
	}
	if m["svc.name"] != "http" {
		t.Errorf("svc.name = %v, want http (entry %v)", m["svc.name"], m)
	}
	if m["svc.limits.failures"] != float64(5) {
		t.Errorf("svc.limits.failures = %v, want 5 (entry %v)", m["svc.limits.failures"], m)
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()
	h := NewSlogHandler(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("Enabled(info) = true for a warn logger")
	}
	if zerolog.GlobalLevel() <= zerolog.ErrorLevel && !h.Enabled(ctx, slog.LevelError) {
		t.Error("Enabled(error) = false for a warn logger")
	}
}

func TestSlogHandler_EmptyGroupIsNoop(t *testing.T) {
	t.Parallel()
	h := NewSlogHandler(NewTestLogger(&bytes.Buffer{}))
	if h.WithGroup("") != slog.Handler(h) {
		t.Error("WithGroup(\"\") returned a new handler")
	}
	if h.WithAttrs(nil) != slog.Handler(h) {
		t.Error("WithAttrs(nil) returned a new handler")
	}
}

func TestToZerologLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := toZerologLevel(tt.in); got != tt.want {
			t.Errorf("toZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewSlogLogger(t *testing.T) {
	buf := captureGlobal(t)

	NewSlogLogger("supervisor").Info("tree started")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["component"] != "supervisor" || m["message"] != "tree started" {
		t.Errorf("entry = %v", m)
	}
}
