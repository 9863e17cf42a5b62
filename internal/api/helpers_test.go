// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/pathcredit/internal/analysis"
	"github.com/tomtom215/pathcredit/internal/attribution"
	"github.com/tomtom215/pathcredit/internal/attribution/algorithms"
	"github.com/tomtom215/pathcredit/internal/eventprocessor"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeTracker struct {
	mu          sync.Mutex
	touchpoints []attribution.Touchpoint
	conversions []attribution.Conversion
	trackResult attribution.TrackResult
	convResult  attribution.ConversionResult
	err         error
}

func (f *fakeTracker) TrackTouchpoint(_ context.Context, tp attribution.Touchpoint) (attribution.TrackResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return attribution.TrackResult{}, f.err
	}
	f.touchpoints = append(f.touchpoints, tp)
	res := f.trackResult
	res.EventID = tp.EventID
	return res, nil
}

func (f *fakeTracker) TrackConversion(_ context.Context, c attribution.Conversion) (attribution.ConversionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return attribution.ConversionResult{}, f.err
	}
	f.conversions = append(f.conversions, c)
	res := f.convResult
	res.ConversionID = c.ConversionID
	return res, nil
}

type fakeJourneys struct {
	journeys  map[string]*attribution.Journey
	results   []attribution.AttributionResult
	lastModel attribution.ModelType
	pingErr   error
	err       error
}

func (f *fakeJourneys) BuildJourneyFromDB(_ context.Context, id string) (*attribution.Journey, error) {
	if f.err != nil {
		return nil, f.err
	}
	j, ok := f.journeys[id]
	if !ok {
		return nil, attribution.ErrNotFound
	}
	return j, nil
}

func (f *fakeJourneys) GetAttributionResults(_ context.Context, _ string, model attribution.ModelType) ([]attribution.AttributionResult, error) {
	f.lastModel = model
	return f.results, f.err
}

func (f *fakeJourneys) Ping(context.Context) error { return f.pingErr }

type fakeAnalyzer struct {
	engine     *attribution.Engine
	result     attribution.AttributionResult
	job        *attribution.BatchJob
	outcome    analysis.TrainOutcome
	err        error
	lastBatch  analysis.BatchRequest
	lastTrain  analysis.TrainRequest
	lastModel  attribution.ModelType
	trainCalls int
}

func (f *fakeAnalyzer) AnalyzeJourney(_ context.Context, id string, model attribution.ModelType) (attribution.AttributionResult, error) {
	f.lastModel = model
	if f.err != nil {
		return attribution.AttributionResult{}, f.err
	}
	res := f.result
	res.JourneyID = id
	return res, nil
}

func (f *fakeAnalyzer) AnalyzeBatch(_ context.Context, req analysis.BatchRequest) (*attribution.BatchJob, error) {
	f.lastBatch = req
	return f.job, f.err
}

func (f *fakeAnalyzer) TrainMarkov(_ context.Context, req analysis.TrainRequest) (analysis.TrainOutcome, error) {
	f.trainCalls++
	f.lastTrain = req
	return f.outcome, f.err
}

func (f *fakeAnalyzer) Engine() *attribution.Engine { return f.engine }

type fakeComponent struct {
	health eventprocessor.ComponentHealth
}

func (f fakeComponent) Health() eventprocessor.ComponentHealth { return f.health }

func newTestEngine(t *testing.T) *attribution.Engine {
	t.Helper()
	engine, err := attribution.NewEngine(attribution.DefaultEngineConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	engine.RegisterModel(algorithms.NewShapleyBatch(algorithms.DefaultShapleyConfig()))
	engine.RegisterModel(algorithms.NewMarkov(algorithms.DefaultMarkovConfig()))
	engine.RegisterModel(algorithms.NewLinear())
	return engine
}

type testEnv struct {
	tracker  *fakeTracker
	journeys *fakeJourneys
	analyzer *fakeAnalyzer
	handler  *Handler
	router   http.Handler
}

func newTestEnv(t *testing.T, components ...ComponentChecker) *testEnv {
	t.Helper()
	env := &testEnv{
		tracker: &fakeTracker{
			trackResult: attribution.TrackResult{JourneyID: "j-1", JourneyTouchpoints: 1},
			convResult:  attribution.ConversionResult{JourneyID: "j-1", AnalysisQueued: true},
		},
		journeys: &fakeJourneys{journeys: map[string]*attribution.Journey{}},
		analyzer: &fakeAnalyzer{engine: newTestEngine(t)},
	}
	env.handler = NewHandler(HandlerConfig{}, env.tracker, env.journeys, env.analyzer, components...)
	env.handler.now = func() time.Time { return fixedNow }

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimit.Disabled = true
	env.router = NewRouter(env.handler, NewChiMiddleware(mwCfg))
	return env
}

// testResponse is APIResponse with Data left raw for typed decoding.
type testResponse struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case string:
		req = httptest.NewRequest(method, path, bytes.NewBufferString(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func decodeData(t *testing.T, resp testResponse, dst any) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", resp.Data, err)
	}
}
