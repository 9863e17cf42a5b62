// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import (
	"fmt"
	"time"
)

// ModelType identifies an attribution algorithm. Stored as its string value.
type ModelType string

const (
	ModelShapley           ModelType = "shapley"
	ModelMarkov            ModelType = "markov"
	ModelLinear            ModelType = "linear"
	ModelMonteCarloShapley ModelType = "montecarlo_shapley"
)

// DefaultModelVersion is reported by models that do not track their own.
const DefaultModelVersion = "1.0.0"

// Valid reports whether m is a known model type.
func (m ModelType) Valid() bool {
	switch m {
	case ModelShapley, ModelMarkov, ModelLinear, ModelMonteCarloShapley:
		return true
	default:
		return false
	}
}

// ParseModelType converts a stored or submitted string into a ModelType.
func ParseModelType(s string) (ModelType, error) {
	m := ModelType(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
	return m, nil
}

// Model scores a single journey. Implementations must be safe for
// concurrent Score calls and must not perform I/O.
type Model interface {
	// Type returns the model identifier results are labeled with.
	Type() ModelType

	// Score assigns credit for the journey. It never fails for a journey
	// produced by BuildJourney.
	Score(journey Journey) AttributionResult
}

// TrainableModel is a Model that learns parameters from historical journeys.
type TrainableModel interface {
	Model

	// Train replaces the learned parameters. Concurrent calls fail with
	// ErrTrainingInProgress.
	Train(journeys []Journey) (TrainingStats, error)

	// IsTrained reports whether parameters have been learned or restored.
	IsTrained() bool

	// Version returns the version string of the current parameters.
	Version() string
}

// BatchLearner is a Model that learns from a batch before scoring it.
// Engine.ScoreBatch calls LearnBatch once with the whole batch.
type BatchLearner interface {
	Model
	LearnBatch(journeys []Journey) error
}

// StatefulModel can export and restore its parameters as a ModelState.
type StatefulModel interface {
	TrainableModel
	State() ModelState
	Restore(state ModelState) error
}

// TrainingStats summarizes a training run.
type TrainingStats struct {
	TransitionsLearned int `json:"transitions_learned"`
	StatesLearned      int `json:"states_learned"`
	JourneysTrained    int `json:"journeys_trained"`
}

// PlatformAttribution is the credit one platform received for a conversion.
type PlatformAttribution struct {
	Platform          Platform `json:"platform"`
	Credit            float64  `json:"credit"`
	TouchpointCount   int      `json:"touchpoint_count"`
	RevenueAttributed float64  `json:"revenue_attributed"`
	Cost              *float64 `json:"cost,omitempty"`
	ROI               *float64 `json:"roi,omitempty"`
}

// CampaignAttribution is the credit one campaign received for a conversion.
type CampaignAttribution struct {
	CampaignID        string   `json:"campaign_id"`
	CampaignName      string   `json:"campaign_name,omitempty"`
	Platform          Platform `json:"platform"`
	Credit            float64  `json:"credit"`
	TouchpointCount   int      `json:"touchpoint_count"`
	RevenueAttributed float64  `json:"revenue_attributed"`
	Cost              *float64 `json:"cost,omitempty"`
	ROAS              *float64 `json:"roas,omitempty"`
	FirstTouchCount   int      `json:"first_touch_count"`
	LastTouchCount    int      `json:"last_touch_count"`
	MiddleTouchCount  int      `json:"middle_touch_count"`
}

// AttributionResult is the derived output of scoring one journey with one
// model. It is recomputable and never the system of record.
type AttributionResult struct {
	ID           string    `json:"result_id,omitempty"`
	JourneyID    string    `json:"journey_id"`
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	ModelType    ModelType `json:"model_type"`
	ModelVersion string    `json:"model_version"`

	PlatformAttribution []PlatformAttribution `json:"platform_attribution"`
	CampaignAttribution []CampaignAttribution `json:"campaign_attribution"`

	Converted       bool       `json:"converted"`
	ConversionValue float64    `json:"conversion_value"`
	ConversionDate  *time.Time `json:"conversion_date,omitempty"`

	TotalTouchpoints int     `json:"total_touchpoints"`
	UniquePlatforms  int     `json:"unique_platforms"`
	DaysToConvert    float64 `json:"days_to_convert,omitempty"`

	ConfidenceScore float64   `json:"confidence_score"`
	Insights        []string  `json:"insights"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// TotalCredit sums platform credit. It is 1.0 for converting results.
func (r *AttributionResult) TotalCredit() float64 {
	var total float64
	for i := range r.PlatformAttribution {
		total += r.PlatformAttribution[i].Credit
	}
	return total
}

// CreditFor returns the credit assigned to platform p, or 0.
func (r *AttributionResult) CreditFor(p Platform) float64 {
	for i := range r.PlatformAttribution {
		if r.PlatformAttribution[i].Platform == p {
			return r.PlatformAttribution[i].Credit
		}
	}
	return 0
}

// ModelState is the durable, versioned parameter set of a trained model.
// At most one state per (ModelType, TenantID) is active.
type ModelState struct {
	ID        string    `json:"id"`
	ModelType ModelType `json:"model_type"`
	Version   string    `json:"version"`
	TenantID  string    `json:"tenant_id,omitempty"`
	TrainedAt time.Time `json:"trained_at"`

	TrainingStart   time.Time `json:"training_start,omitempty"`
	TrainingEnd     time.Time `json:"training_end,omitempty"`
	JourneysTrained int       `json:"journeys_trained"`

	Params           map[string]any            `json:"model_params,omitempty"`
	TransitionCounts map[string]map[string]int `json:"transition_matrix"`
	StateCounts      map[string]int            `json:"state_counts"`
	ConversionProbs  map[string]float64        `json:"conversion_probs"`

	IsActive  bool      `json:"is_active"`
	IsTrained bool      `json:"is_trained"`
	CreatedAt time.Time `json:"created_at"`
}
