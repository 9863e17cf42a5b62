// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// SaveAttributionResult inserts r as a new history row and returns its id.
// An empty r.ID gets a random one. Saving an id that is already stored is a
// no-op, so callers that derive ids can retry safely. Results are never
// updated in place.
func (db *DB) SaveAttributionResult(ctx context.Context, r *attribution.AttributionResult) (id string, err error) {
	start := time.Now()
	defer func() { observe("insert", "attribution_results", start, err) }()

	row := *r
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.AnalyzedAt.IsZero() {
		row.AnalyzedAt = time.Now().UTC()
	}
	if row.ModelVersion == "" {
		row.ModelVersion = attribution.DefaultModelVersion
	}

	args, err := resultArgs(&row)
	if err != nil {
		return "", err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `INSERT INTO attribution_results (` + resultColumns + `) VALUES (` + resultPlaceholders + `)
		ON CONFLICT (id) DO NOTHING`
	if _, err := db.conn.ExecContext(ctx, db.rebind(query), args...); err != nil {
		return "", fmt.Errorf("failed to save attribution result for journey %s: %w", r.JourneyID, err)
	}
	return row.ID, nil
}

// GetAttributionResults returns the journey's results, newest first. An
// empty modelType returns every model.
func (db *DB) GetAttributionResults(ctx context.Context, journeyID string, modelType attribution.ModelType) (results []attribution.AttributionResult, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_results", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + resultColumns + ` FROM attribution_results WHERE journey_id = ?`
	args := []any{journeyID}
	if modelType != "" {
		query += ` AND model_type = ?`
		args = append(args, string(modelType))
	}
	query += ` ORDER BY analyzed_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribution results: %w", err)
	}
	defer closeWithLog(rows, "result rows")

	results = []attribution.AttributionResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribution result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attribution results: %w", err)
	}
	return results, nil
}
