// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package attribution

import "time"

// JourneyFilter selects stored journeys. Zero values do not filter.
type JourneyFilter struct {
	Limit         int
	ConvertedOnly bool
	Start         time.Time
	End           time.Time
	TenantID      string

	// MinTouchpoints skips journeys with fewer touchpoints.
	MinTouchpoints int
}

// BatchJobStatus is the lifecycle state of a batch analysis job.
type BatchJobStatus string

const (
	BatchJobPending   BatchJobStatus = "pending"
	BatchJobRunning   BatchJobStatus = "running"
	BatchJobCompleted BatchJobStatus = "completed"
	BatchJobFailed    BatchJobStatus = "failed"
)

// BatchJob tracks the progress of one batch analysis request.
type BatchJob struct {
	ID        string         `json:"job_id"`
	ModelType ModelType      `json:"model_type"`
	TenantID  string         `json:"tenant_id,omitempty"`
	Status    BatchJobStatus `json:"status"`

	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	JourneyLimit int        `json:"journey_limit"`

	TotalJourneys     int    `json:"total_journeys"`
	ProcessedJourneys int    `json:"processed_journeys"`
	FailedJourneys    int    `json:"failed_journeys"`
	ErrorMessage      string `json:"error_message,omitempty"`

	Report *BatchReport `json:"report,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
