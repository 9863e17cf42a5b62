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

	"github.com/tomtom215/pathcredit/internal/attribution"
)

// SaveTouchpoint inserts tp under journeyID. Saving an event id that is
// already stored is a no-op; only ReplaceJourney moves touchpoints between
// journeys.
func (db *DB) SaveTouchpoint(ctx context.Context, tp *attribution.Touchpoint, journeyID string) (err error) {
	start := time.Now()
	defer func() { observe("upsert", "attribution_touchpoints", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.saveTouchpoint(ctx, db.conn, tp, journeyID)
}

func (db *DB) saveTouchpoint(ctx context.Context, q querier, tp *attribution.Touchpoint, journeyID string) error {
	if err := tp.Validate(); err != nil {
		return err
	}
	args, err := touchpointArgs(tp, journeyID, time.Now().UTC())
	if err != nil {
		return err
	}

	query := `INSERT INTO attribution_touchpoints (` + touchpointColumns + `)
		VALUES (` + touchpointPlaceholders + `)
		ON CONFLICT (event_id) DO NOTHING`
	if _, err := q.ExecContext(ctx, db.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to save touchpoint %s: %w", tp.EventID, err)
	}
	return nil
}

// LookupTouchpoint finds the stored journey holding tp, matched by event id
// or by the user's dedup key. It returns the journey id with that journey's
// touchpoint count, or attribution.ErrNotFound.
func (db *DB) LookupTouchpoint(ctx context.Context, tp *attribution.Touchpoint) (journeyID string, touchpoints int, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_touchpoints", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT t.journey_id, COALESCE(j.total_touchpoints, 0)
		FROM attribution_touchpoints t
		LEFT JOIN attribution_journeys j ON j.journey_id = t.journey_id
		WHERE t.event_id = ? OR (t.user_id = ? AND t.dedup_key = ?)
		ORDER BY t.event_id = ? DESC
		LIMIT 1`
	row := db.conn.QueryRowContext(ctx, db.rebind(query), tp.EventID, tp.UserID, tp.DedupKey(), tp.EventID)
	if err := row.Scan(&journeyID, &touchpoints); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, attribution.ErrNotFound
		}
		return "", 0, fmt.Errorf("failed to look up touchpoint %s: %w", tp.EventID, err)
	}
	return journeyID, touchpoints, nil
}

// GetTouchpointsForJourney returns the journey's touchpoints ordered by
// timestamp, then event id.
func (db *DB) GetTouchpointsForJourney(ctx context.Context, journeyID string) (tps []attribution.Touchpoint, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_touchpoints", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + touchpointColumns + ` FROM attribution_touchpoints
		WHERE journey_id = ?
		ORDER BY event_timestamp, event_id`
	return db.queryTouchpoints(ctx, query, journeyID)
}

// GetTouchpointsForUser returns a user's touchpoints ordered by timestamp.
// Zero start or end leaves that side of the range open.
func (db *DB) GetTouchpointsForUser(ctx context.Context, userID string, startTime, endTime time.Time) (tps []attribution.Touchpoint, err error) {
	begin := time.Now()
	defer func() { observe("select", "attribution_touchpoints", begin, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + touchpointColumns + ` FROM attribution_touchpoints WHERE user_id = ?`
	args := []any{userID}
	if !startTime.IsZero() {
		query += ` AND event_timestamp >= ?`
		args = append(args, startTime.UTC())
	}
	if !endTime.IsZero() {
		query += ` AND event_timestamp <= ?`
		args = append(args, endTime.UTC())
	}
	query += ` ORDER BY event_timestamp, event_id`
	return db.queryTouchpoints(ctx, query, args...)
}

func (db *DB) queryTouchpoints(ctx context.Context, query string, args ...any) ([]attribution.Touchpoint, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query touchpoints: %w", err)
	}
	defer closeWithLog(rows, "touchpoint rows")

	var tps []attribution.Touchpoint
	for rows.Next() {
		tp, _, err := scanTouchpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan touchpoint: %w", err)
		}
		tps = append(tps, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate touchpoints: %w", err)
	}
	return tps, nil
}
