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
	"github.com/tomtom215/pathcredit/internal/logging"
)

// upsertJourneySQL rewrites every derived column from the incoming row.
// user_id and created_at are fixed at insert.
const upsertJourneySQL = `INSERT INTO attribution_journeys (` + journeyColumns + `)
	VALUES (` + journeyPlaceholders + `)
	ON CONFLICT (journey_id) DO UPDATE SET
		tenant_id = excluded.tenant_id,
		first_touch_at = excluded.first_touch_at,
		last_touch_at = excluded.last_touch_at,
		conversion_at = excluded.conversion_at,
		total_touchpoints = excluded.total_touchpoints,
		unique_platforms = excluded.unique_platforms,
		platforms = excluded.platforms,
		converted = excluded.converted,
		conversion_id = excluded.conversion_id,
		conversion_value = excluded.conversion_value,
		days_to_convert = excluded.days_to_convert,
		updated_at = excluded.updated_at`

// CreateOrUpdateJourney upserts the journey summary by journey id. The
// counters come from j; the store never re-derives them.
func (db *DB) CreateOrUpdateJourney(ctx context.Context, j *attribution.Journey, tenantID string) (err error) {
	start := time.Now()
	defer func() { observe("upsert", "attribution_journeys", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.upsertJourney(ctx, db.conn, j, tenantID)
}

func (db *DB) upsertJourney(ctx context.Context, q querier, j *attribution.Journey, tenantID string) error {
	if j.ID == "" {
		return &attribution.ValidationError{Field: "journey_id", Reason: "is required"}
	}
	args, err := journeyArgs(j, tenantID, time.Now().UTC())
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, db.rebind(upsertJourneySQL), args...); err != nil {
		return fmt.Errorf("failed to save journey %s: %w", j.ID, err)
	}
	return nil
}

// ReplaceJourney re-keys an open journey whose id changed after an append.
// In one transaction it upserts the new row, moves touchpoints and the
// conversion to the new id, then deletes the old row. Stored results keep
// the id they were computed for.
func (db *DB) ReplaceJourney(ctx context.Context, oldID string, j *attribution.Journey, tenantID string) (err error) {
	start := time.Now()
	defer func() { observe("replace", "attribution_journeys", start, err) }()

	if oldID == j.ID {
		return db.CreateOrUpdateJourney(ctx, j, tenantID)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if err := db.upsertJourney(ctx, tx, j, tenantID); err != nil {
			return err
		}
		for _, stmt := range []string{
			`UPDATE attribution_touchpoints SET journey_id = ? WHERE journey_id = ?`,
			`UPDATE attribution_conversions SET journey_id = ? WHERE journey_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, db.rebind(stmt), j.ID, oldID); err != nil {
				return fmt.Errorf("failed to re-key journey %s: %w", oldID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM attribution_journeys WHERE journey_id = ?`), oldID); err != nil {
			return fmt.Errorf("failed to delete journey %s: %w", oldID, err)
		}
		return nil
	})
}

// CloseJourney stores j's conversion and its converted summary row in one
// transaction, so a journey is never left open with a conversion attached.
func (db *DB) CloseJourney(ctx context.Context, j *attribution.Journey, tenantID string) (err error) {
	start := time.Now()
	defer func() { observe("close", "attribution_journeys", start, err) }()

	if j.Conversion == nil {
		return &attribution.ValidationError{Field: "conversion", Reason: "is required to close a journey"}
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if err := db.saveConversion(ctx, tx, j.Conversion, j.ID); err != nil {
			return err
		}
		return db.upsertJourney(ctx, tx, j, tenantID)
	})
}

// GetJourney returns the stored summary row, or attribution.ErrNotFound.
func (db *DB) GetJourney(ctx context.Context, journeyID string) (rec *JourneyRecord, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_journeys", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + journeyColumns + ` FROM attribution_journeys WHERE journey_id = ?`
	r, err := scanJourneyRecord(db.conn.QueryRowContext(ctx, db.rebind(query), journeyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, attribution.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get journey %s: %w", journeyID, err)
	}
	return &r, nil
}

// GetOpenJourneyForUser rebuilds the user's most recent unconverted
// journey, or returns attribution.ErrNotFound.
func (db *DB) GetOpenJourneyForUser(ctx context.Context, userID string) (*attribution.Journey, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var journeyID string
	err := db.conn.QueryRowContext(ctx, db.rebind(`SELECT journey_id FROM attribution_journeys
		WHERE user_id = ? AND converted = FALSE
		ORDER BY last_touch_at DESC
		LIMIT 1`), userID).Scan(&journeyID)
	observe("select", "attribution_journeys", start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, attribution.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open journey for user %s: %w", userID, err)
	}

	j, err := db.BuildJourneyFromDB(ctx, journeyID)
	if errors.Is(err, attribution.ErrEmptyJourney) {
		// A summary row without touchpoints is an interrupted write; the
		// next touchpoint starts over.
		return nil, attribution.ErrNotFound
	}
	return j, err
}

// GetRecentJourneys returns journey summaries, most recently touched first.
func (db *DB) GetRecentJourneys(ctx context.Context, filter attribution.JourneyFilter) (recs []JourneyRecord, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_journeys", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + journeyColumns + ` FROM attribution_journeys WHERE 1 = 1`
	var args []any
	if filter.ConvertedOnly {
		query += ` AND converted = TRUE`
	}
	if filter.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, filter.TenantID)
	}
	if !filter.Start.IsZero() {
		query += ` AND last_touch_at >= ?`
		args = append(args, filter.Start.UTC())
	}
	if !filter.End.IsZero() {
		query += ` AND first_touch_at <= ?`
		args = append(args, filter.End.UTC())
	}
	if filter.MinTouchpoints > 0 {
		query += ` AND total_touchpoints >= ?`
		args = append(args, filter.MinTouchpoints)
	}
	query += ` ORDER BY last_touch_at DESC, journey_id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journeys: %w", err)
	}
	defer closeWithLog(rows, "journey rows")

	for rows.Next() {
		r, err := scanJourneyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journey: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journeys: %w", err)
	}
	return recs, nil
}

// BuildJourneyFromDB reconstructs the in-memory journey from its stored
// touchpoints and conversion. It returns attribution.ErrNotFound when the
// journey row does not exist and attribution.ErrEmptyJourney when it has
// no touchpoints. A converted row without its conversion fails with
// ErrMissingConversion.
func (db *DB) BuildJourneyFromDB(ctx context.Context, journeyID string) (*attribution.Journey, error) {
	rec, err := db.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	tps, err := db.GetTouchpointsForJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if len(tps) == 0 {
		return nil, fmt.Errorf("journey %s: %w", journeyID, attribution.ErrEmptyJourney)
	}

	var conv *attribution.Conversion
	if rec.Converted {
		conv, err = db.GetConversionForJourney(ctx, journeyID)
		if errors.Is(err, attribution.ErrNotFound) {
			return nil, fmt.Errorf("journey %s (conversion %s): %w", journeyID, rec.ConversionID, ErrMissingConversion)
		}
		if err != nil {
			return nil, err
		}
	}

	j, err := attribution.BuildJourney(rec.UserID, tps, conv)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild journey %s: %w", journeyID, err)
	}
	if j.ID != journeyID {
		logging.Warn().
			Str("journey_id", journeyID).
			Str("derived_id", j.ID).
			Msg("Stored journey id does not match its touchpoints")
		j.ID = journeyID
	}
	return &j, nil
}

// LoadJourneys rebuilds every journey matched by filter. Journeys that can
// no longer be rebuilt are skipped and logged.
func (db *DB) LoadJourneys(ctx context.Context, filter attribution.JourneyFilter) ([]attribution.Journey, error) {
	recs, err := db.GetRecentJourneys(ctx, filter)
	if err != nil {
		return nil, err
	}

	journeys := make([]attribution.Journey, 0, len(recs))
	for i := range recs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		j, err := db.BuildJourneyFromDB(ctx, recs[i].ID)
		if err != nil {
			if errors.Is(err, attribution.ErrEmptyJourney) || errors.Is(err, attribution.ErrNotFound) ||
				errors.Is(err, ErrMissingConversion) {
				logging.Warn().Err(err).Str("journey_id", recs[i].ID).Msg("Skipping journey that cannot be rebuilt")
				continue
			}
			return nil, err
		}
		journeys = append(journeys, *j)
	}
	return journeys, nil
}
