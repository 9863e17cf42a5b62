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

// SaveModelState stores state as the active parameters for its model type
// and tenant. In one transaction any prior active state for the same key
// is deactivated. The stored copy, with its generated id, is returned.
func (db *DB) SaveModelState(ctx context.Context, state *attribution.ModelState) (saved attribution.ModelState, err error) {
	start := time.Now()
	defer func() { observe("insert", "attribution_model_states", start, err) }()

	row := *state
	row.ID = uuid.New().String()
	row.IsActive = true
	now := time.Now().UTC()
	row.CreatedAt = now
	if row.TrainedAt.IsZero() {
		row.TrainedAt = now
	}
	if row.Version == "" {
		row.Version = attribution.DefaultModelVersion
	}

	args, err := modelStateArgs(&row)
	if err != nil {
		return attribution.ModelState{}, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err = db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, db.rebind(`UPDATE attribution_model_states SET is_active = FALSE
			WHERE model_type = ? AND tenant_id = ? AND is_active = TRUE`),
			string(row.ModelType), row.TenantID)
		if err != nil {
			return fmt.Errorf("failed to deactivate model state: %w", err)
		}
		query := `INSERT INTO attribution_model_states (` + modelStateColumns + `) VALUES (` + modelStatePlaceholders + `)`
		if _, err := tx.ExecContext(ctx, db.rebind(query), args...); err != nil {
			return fmt.Errorf("failed to insert model state: %w", err)
		}
		return nil
	})
	if err != nil {
		return attribution.ModelState{}, err
	}
	return row, nil
}

// GetActiveModelState returns the active state for modelType and tenant,
// or attribution.ErrNotFound.
func (db *DB) GetActiveModelState(ctx context.Context, modelType attribution.ModelType, tenantID string) (state *attribution.ModelState, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_model_states", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + modelStateColumns + ` FROM attribution_model_states
		WHERE model_type = ? AND tenant_id = ? AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`
	s, err := scanModelState(db.conn.QueryRowContext(ctx, db.rebind(query), string(modelType), tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, attribution.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active %s state: %w", modelType, err)
	}
	return &s, nil
}

// CountModelStates returns how many states, active or not, exist for
// modelType and tenant.
func (db *DB) CountModelStates(ctx context.Context, modelType attribution.ModelType, tenantID string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx,
		db.rebind(`SELECT COUNT(*) FROM attribution_model_states WHERE model_type = ? AND tenant_id = ?`),
		string(modelType), tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count model states: %w", err)
	}
	return n, nil
}
