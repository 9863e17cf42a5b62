// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()
	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("len(GenerateCorrelationID()) = %d, want 8", len(a))
	}
	if a == b {
		t.Errorf("GenerateCorrelationID() returned %q twice", a)
	}
}

func TestCorrelationIDContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("CorrelationIDFromContext(empty) = %q", got)
	}
	ctx = ContextWithCorrelationID(ctx, "abc12345")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("CorrelationIDFromContext() = %q, want abc12345", got)
	}
	if got := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background())); got == "" {
		t.Error("ContextWithNewCorrelationID() left no id")
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()
	ctx := ContextWithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q, want req-1", got)
	}
}

func TestCtx_AddsIDs(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithCorrelationID(context.Background(), "corr-1")
	ctx = ContextWithRequestID(ctx, "req-1")
	Ctx(ctx).Info().Msg("scored")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["correlation_id"] != "corr-1" || m["request_id"] != "req-1" {
		t.Errorf("entry = %v", m)
	}
}

func TestCtx_NoIDs(t *testing.T) {
	buf := captureGlobal(t)

	Ctx(context.Background()).Info().Msg("plain")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if _, ok := m["correlation_id"]; ok {
		t.Errorf("entry has correlation_id without one in context: %v", m)
	}
}

func TestCorrelatedLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	base := NewTestLogger(&buf).With().Str("component", "pipeline").Logger()

	ctx := ContextWithCorrelationID(context.Background(), "corr-2")
	logger := CorrelatedLogger(ctx, base)
	logger.Info().Msg("handled")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["component"] != "pipeline" || m["correlation_id"] != "corr-2" {
		t.Errorf("entry = %v", m)
	}
}
