// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillLogger_Error(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewWatermillLogger(NewTestLogger(&buf))

	w.Error("handler failed", errors.New("store down"), watermill.LogFields{"topic": "attribution.conversions"})

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "error" || m["error"] != "store down" || m["topic"] != "attribution.conversions" {
		t.Errorf("entry = %v", m)
	}
}

func TestWatermillLogger_InfoIsDebug(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewWatermillLogger(NewTestLogger(&buf).Level(zerolog.InfoLevel))

	w.Info("router starting", nil)
	if buf.Len() != 0 {
		t.Errorf("watermill info logged at info level: %s", buf.String())
	}
}

func TestWatermillLogger_With(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewWatermillLogger(NewTestLogger(&buf)).With(watermill.LogFields{"handler": "score_conversion"})

	w.Error("nack", nil, watermill.LogFields{"message_uuid": "m-1"})

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["handler"] != "score_conversion" || m["message_uuid"] != "m-1" {
		t.Errorf("entry = %v", m)
	}
}
