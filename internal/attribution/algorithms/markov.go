// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package algorithms

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// Synthetic boundary states of the Markov chain.
const (
	StateStart      = "START"
	StateConversion = "CONVERSION"
	StateNull       = "NULL"
)

// MarkovConfig contains configuration for the Markov removal-effect model.
type MarkovConfig struct {
	// MinSupport is the number of outgoing transitions a state needs before
	// its own conversion rate is trusted. Sparser states use the global
	// average conversion rate.
	// Default: 5.
	MinSupport int

	// UnseenTransitionProb replaces the probability of a transition never
	// observed in training.
	// Default: 0.1.
	UnseenTransitionProb float64

	// UnknownStateConversionProb is the conversion probability of a final
	// state never observed in training.
	// Default: 0.1.
	UnknownStateConversionProb float64
}

// DefaultMarkovConfig returns default Markov configuration.
func DefaultMarkovConfig() MarkovConfig {
	return MarkovConfig{
		MinSupport:                 5,
		UnseenTransitionProb:       0.1,
		UnknownStateConversionProb: 0.1,
	}
}

// markovParams is an immutable learned parameter set. A new one is built
// for every training run and swapped in whole.
type markovParams struct {
	transitions      map[string]map[string]float64
	transitionCounts map[string]map[string]int
	stateCounts      map[string]int
	conversionProbs  map[string]float64

	generation      int
	version         string
	trainedAt       time.Time
	trainingStart   time.Time
	trainingEnd     time.Time
	journeysTrained int
}

// Markov attributes conversions by removal effect over a first-order chain
// of platform states:
//
//	P(path) = prod P(s[i+1] | s[i]) over [START, p1..pn] * P(CONVERSION | pn)
//	effect(p) = max(0, P(path) - P(path without p))
//	credit(touchpoint) = effect(platform) / sum(effects)
//
// An untrained model falls back to linear attribution.
type Markov struct {
	BaseModel
	config MarkovConfig

	trainMu sync.Mutex
	params  atomic.Pointer[markovParams]
}

// NewMarkov creates an untrained Markov model.
func NewMarkov(cfg MarkovConfig) *Markov {
	if cfg.MinSupport <= 0 {
		cfg.MinSupport = 5
	}
	if cfg.UnseenTransitionProb <= 0 {
		cfg.UnseenTransitionProb = 0.1
	}
	if cfg.UnknownStateConversionProb <= 0 {
		cfg.UnknownStateConversionProb = 0.1
	}
	return &Markov{
		BaseModel: NewBaseModel(attribution.ModelMarkov, ""),
		config:    cfg,
	}
}

// Config returns the model configuration.
func (m *Markov) Config() MarkovConfig {
	return m.config
}

// IsTrained reports whether parameters have been learned or restored.
func (m *Markov) IsTrained() bool {
	return m.params.Load() != nil
}

// Version returns the version of the current parameters.
func (m *Markov) Version() string {
	if p := m.params.Load(); p != nil {
		return p.version
	}
	return m.version
}

// LastTrainedAt returns when the current parameters were learned.
func (m *Markov) LastTrainedAt() time.Time {
	if p := m.params.Load(); p != nil {
		return p.trainedAt
	}
	return time.Time{}
}

// Train learns transition and conversion probabilities from journeys and
// replaces the current parameters.
func (m *Markov) Train(journeys []attribution.Journey) (attribution.TrainingStats, error) {
	if !m.trainMu.TryLock() {
		return attribution.TrainingStats{}, attribution.ErrTrainingInProgress
	}
	defer m.trainMu.Unlock()

	counts := make(map[string]map[string]int)
	stateCounts := make(map[string]int)
	var start, end time.Time

	for i := range journeys {
		j := &journeys[i]
		if len(j.Touchpoints) == 0 {
			continue
		}
		if start.IsZero() || j.FirstTouchAt.Before(start) {
			start = j.FirstTouchAt
		}
		if j.LastTouchAt.After(end) {
			end = j.LastTouchAt
		}

		states := make([]string, 0, len(j.Touchpoints)+2)
		states = append(states, StateStart)
		for k := range j.Touchpoints {
			states = append(states, string(j.Touchpoints[k].Platform))
		}
		if j.Converted {
			states = append(states, StateConversion)
		} else {
			states = append(states, StateNull)
		}

		for k := 0; k < len(states)-1; k++ {
			from, to := states[k], states[k+1]
			if counts[from] == nil {
				counts[from] = make(map[string]int)
			}
			counts[from][to]++
			stateCounts[from]++
		}
	}

	prev := m.params.Load()
	generation := 1
	if prev != nil {
		generation = prev.generation + 1
	}

	next := m.buildParams(counts, stateCounts, nil)
	next.generation = generation
	next.version = versionForGeneration(generation)
	next.trainedAt = time.Now().UTC()
	next.trainingStart = start
	next.trainingEnd = end
	next.journeysTrained = len(journeys)

	m.params.Store(next)

	return attribution.TrainingStats{
		TransitionsLearned: countTransitions(next.transitions),
		StatesLearned:      len(stateCounts),
		JourneysTrained:    len(journeys),
	}, nil
}

// buildParams derives probabilities from counts. When conversionProbs is
// nil they are computed with the min-support fallback.
func (m *Markov) buildParams(counts map[string]map[string]int, stateCounts map[string]int, conversionProbs map[string]float64) *markovParams {
	transitions := make(map[string]map[string]float64, len(counts))
	for from, row := range counts {
		total := stateCounts[from]
		if total == 0 {
			continue
		}
		probs := make(map[string]float64, len(row))
		for to, c := range row {
			probs[to] = float64(c) / float64(total)
		}
		transitions[from] = probs
	}

	if conversionProbs == nil {
		conversionProbs = make(map[string]float64, len(stateCounts))
		var totalConv, totalAll int
		for from, total := range stateCounts {
			totalConv += counts[from][StateConversion]
			totalAll += total
		}
		global := 0.0
		if totalAll > 0 {
			global = float64(totalConv) / float64(totalAll)
		}
		for state, total := range stateCounts {
			if total >= m.config.MinSupport {
				conversionProbs[state] = float64(counts[state][StateConversion]) / float64(total)
			} else {
				conversionProbs[state] = global
			}
		}
	}

	return &markovParams{
		transitions:      transitions,
		transitionCounts: counts,
		stateCounts:      stateCounts,
		conversionProbs:  conversionProbs,
	}
}

// Score assigns removal-effect credit to a journey.
func (m *Markov) Score(j attribution.Journey) attribution.AttributionResult {
	params := m.params.Load()
	version := m.version
	if params != nil {
		version = params.version
	}

	filtered, null := prepareJourney(j, m.modelType, version)
	if null != nil {
		return *null
	}
	if params == nil {
		return coldStart(&filtered, version)
	}

	path := filtered.ConversionPath()
	platforms := distinctPlatforms(filtered.Touchpoints)

	baseline := m.pathProbability(params, path, "")
	effects := make(map[attribution.Platform]float64, len(platforms))
	for _, p := range platforms {
		effect := baseline - m.pathProbability(params, path, p)
		if effect < 0 {
			effect = 0
		}
		effects[p] = effect
	}

	// Normalize over touchpoints so repeated platforms still sum to 1.0.
	var total float64
	for _, p := range path {
		total += effects[p]
	}

	credits := make([]float64, len(path))
	for i, p := range path {
		if total > 0 {
			credits[i] = effects[p] / total
		} else {
			credits[i] = 1.0 / float64(len(path))
		}
	}

	r := attribution.BuildResult(&filtered, m.modelType, version, filtered.Touchpoints, credits)
	r.ConfidenceScore = attribution.Confidence(&filtered)
	r.Insights = markovInsights(&filtered, platforms, effects)
	return r
}

// RemovalEffects returns max(0, baseline - without) for every platform of
// the journey path, using the current parameters. It is nil when the model
// is untrained.
func (m *Markov) RemovalEffects(path []attribution.Platform) map[attribution.Platform]float64 {
	params := m.params.Load()
	if params == nil {
		return nil
	}
	baseline := m.pathProbability(params, path, "")
	out := make(map[attribution.Platform]float64)
	for _, p := range path {
		if _, ok := out[p]; ok {
			continue
		}
		effect := baseline - m.pathProbability(params, path, p)
		if effect < 0 {
			effect = 0
		}
		out[p] = effect
	}
	return out
}

// pathProbability is the probability of walking START -> path and then
// converting, with every occurrence of removed dropped from the path.
func (m *Markov) pathProbability(params *markovParams, path []attribution.Platform, removed attribution.Platform) float64 {
	prob := 1.0
	from := StateStart
	steps := 0
	for _, p := range path {
		if removed != "" && p == removed {
			continue
		}
		to := string(p)
		prob *= m.transitionProb(params, from, to)
		from = to
		steps++
	}
	if steps == 0 {
		return 0
	}

	conv, ok := params.conversionProbs[from]
	if !ok {
		conv = m.config.UnknownStateConversionProb
	}
	return prob * conv
}

func (m *Markov) transitionProb(params *markovParams, from, to string) float64 {
	if row, ok := params.transitions[from]; ok {
		if p, ok := row[to]; ok {
			return p
		}
	}
	return m.config.UnseenTransitionProb
}

// ConversionProbs returns a copy of the learned per-state conversion
// probabilities.
func (m *Markov) ConversionProbs() map[string]float64 {
	params := m.params.Load()
	if params == nil {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(params.conversionProbs))
	for k, v := range params.conversionProbs {
		out[k] = v
	}
	return out
}

// TransitionProbability returns the learned P(to | from) and whether the
// transition was observed.
func (m *Markov) TransitionProbability(from, to string) (float64, bool) {
	params := m.params.Load()
	if params == nil {
		return 0, false
	}
	p, ok := params.transitions[from][to]
	return p, ok
}

// PathProbability is a transition into CONVERSION with its probability.
type PathProbability struct {
	Path        []string `json:"path"`
	Probability float64  `json:"probability"`
}

// TopPaths returns up to n transitions into CONVERSION, most probable
// first. It is empty for an untrained model.
func (m *Markov) TopPaths(n int) []PathProbability {
	params := m.params.Load()
	if params == nil || n <= 0 {
		return []PathProbability{}
	}

	out := make([]PathProbability, 0)
	for from, row := range params.transitions {
		if p, ok := row[StateConversion]; ok {
			out = append(out, PathProbability{Path: []string{from}, Probability: p})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Path[0] < out[j].Path[0]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// State exports the current parameters for persistence. IsTrained is false
// for an untrained model.
func (m *Markov) State() attribution.ModelState {
	params := m.params.Load()
	state := attribution.ModelState{
		ModelType: attribution.ModelMarkov,
		Version:   m.Version(),
		Params: map[string]any{
			"min_support":                   m.config.MinSupport,
			"unseen_transition_prob":        m.config.UnseenTransitionProb,
			"unknown_state_conversion_prob": m.config.UnknownStateConversionProb,
		},
		TransitionCounts: map[string]map[string]int{},
		StateCounts:      map[string]int{},
		ConversionProbs:  map[string]float64{},
	}
	if params == nil {
		return state
	}

	for from, row := range params.transitionCounts {
		cp := make(map[string]int, len(row))
		for to, c := range row {
			cp[to] = c
		}
		state.TransitionCounts[from] = cp
	}
	for k, v := range params.stateCounts {
		state.StateCounts[k] = v
	}
	for k, v := range params.conversionProbs {
		state.ConversionProbs[k] = v
	}
	state.TrainedAt = params.trainedAt
	state.TrainingStart = params.trainingStart
	state.TrainingEnd = params.trainingEnd
	state.JourneysTrained = params.journeysTrained
	state.IsTrained = true
	return state
}

// Restore replaces the current parameters with a persisted state. Restoring
// an untrained state resets the model to cold start.
func (m *Markov) Restore(state attribution.ModelState) error {
	if state.ModelType != attribution.ModelMarkov {
		return fmt.Errorf("cannot restore %s state into markov model", state.ModelType)
	}

	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	if !state.IsTrained {
		m.params.Store(nil)
		return nil
	}

	counts := make(map[string]map[string]int, len(state.TransitionCounts))
	for from, row := range state.TransitionCounts {
		cp := make(map[string]int, len(row))
		for to, c := range row {
			cp[to] = c
		}
		counts[from] = cp
	}
	stateCounts := make(map[string]int, len(state.StateCounts))
	for k, v := range state.StateCounts {
		stateCounts[k] = v
	}
	var conv map[string]float64
	if len(state.ConversionProbs) > 0 {
		conv = make(map[string]float64, len(state.ConversionProbs))
		for k, v := range state.ConversionProbs {
			conv[k] = v
		}
	}

	next := m.buildParams(counts, stateCounts, conv)
	next.generation = generationFromVersion(state.Version)
	next.version = state.Version
	if next.version == "" {
		next.version = versionForGeneration(next.generation)
	}
	next.trainedAt = state.TrainedAt
	next.trainingStart = state.TrainingStart
	next.trainingEnd = state.TrainingEnd
	next.journeysTrained = state.JourneysTrained

	m.params.Store(next)
	return nil
}

func markovInsights(j *attribution.Journey, platforms []attribution.Platform, effects map[attribution.Platform]float64) []string {
	insights := make([]string, 0, 3)

	var critical attribution.Platform
	maxEffect := 0.0
	var sum float64
	for _, p := range platforms {
		sum += effects[p]
		if effects[p] > maxEffect {
			maxEffect = effects[p]
			critical = p
		}
	}
	if critical != "" {
		insights = append(insights, fmt.Sprintf("%s was most critical - conversion probability drops %.1f%% without it",
			critical.DisplayName(), maxEffect*100))
	}

	if len(platforms) > 1 && sum > synergyThreshold {
		insights = append(insights, "Strong channel synergy detected - channels work better together")
	}

	if n := len(j.Touchpoints); n >= 3 {
		first, last := j.Touchpoints[0].Platform, j.Touchpoints[n-1].Platform
		if first != last {
			insights = append(insights, fmt.Sprintf("Successful cross-channel path: %s → ... → %s", first, last))
		}
	}

	return insights
}

func countTransitions(t map[string]map[string]float64) int {
	n := 0
	for _, row := range t {
		n += len(row)
	}
	return n
}

// versionForGeneration renders the parameter version after n trainings.
func versionForGeneration(n int) string {
	return fmt.Sprintf("1.0.%d", n)
}

func generationFromVersion(v string) int {
	idx := strings.LastIndex(v, ".")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(v[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

