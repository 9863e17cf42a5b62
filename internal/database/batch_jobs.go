// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// CreateBatchJob inserts a pending job and fills in its id and creation
// time.
func (db *DB) CreateBatchJob(ctx context.Context, job *attribution.BatchJob) (err error) {
	start := time.Now()
	defer func() { observe("insert", "attribution_batch_jobs", start, err) }()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = attribution.BatchJobPending
	}
	job.CreatedAt = time.Now().UTC()

	args, err := batchJobArgs(job)
	if err != nil {
		return err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `INSERT INTO attribution_batch_jobs (` + batchJobColumns + `) VALUES (` + batchJobPlaceholders + `)`
	if _, err := db.conn.ExecContext(ctx, db.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to create batch job: %w", err)
	}
	return nil
}

// UpdateBatchJob writes the job's progress, status, error and report.
func (db *DB) UpdateBatchJob(ctx context.Context, job *attribution.BatchJob) (err error) {
	start := time.Now()
	defer func() { observe("update", "attribution_batch_jobs", start, err) }()

	report, err := encodeBatchReport(job.Report)
	if err != nil {
		return err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, db.rebind(`UPDATE attribution_batch_jobs SET
			status = ?, total_journeys = ?, processed_journeys = ?, failed_journeys = ?,
			error_message = ?, report = ?, started_at = ?, completed_at = ?
		WHERE id = ?`),
		string(job.Status), job.TotalJourneys, job.ProcessedJourneys, job.FailedJourneys,
		job.ErrorMessage, report, nullTime(job.StartedAt), nullTime(job.CompletedAt),
		job.ID)
	if err != nil {
		return fmt.Errorf("failed to update batch job %s: %w", job.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attribution.ErrNotFound
	}
	return nil
}

// GetBatchJob returns the job, or attribution.ErrNotFound.
func (db *DB) GetBatchJob(ctx context.Context, id string) (job *attribution.BatchJob, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_batch_jobs", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + batchJobColumns + ` FROM attribution_batch_jobs WHERE id = ?`
	j, err := scanBatchJob(db.conn.QueryRowContext(ctx, db.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, attribution.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get batch job %s: %w", id, err)
	}
	return &j, nil
}
