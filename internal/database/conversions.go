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

// saveConversion inserts c under journeyID. Saving a conversion id that is
// already stored is a no-op.
func (db *DB) saveConversion(ctx context.Context, q querier, c *attribution.Conversion, journeyID string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	args, err := conversionArgs(c, journeyID, time.Now().UTC())
	if err != nil {
		return err
	}

	query := `INSERT INTO attribution_conversions (` + conversionColumns + `)
		VALUES (` + conversionPlaceholders + `)
		ON CONFLICT (conversion_id) DO NOTHING`
	if _, err := q.ExecContext(ctx, db.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to save conversion %s: %w", c.ConversionID, err)
	}
	return nil
}

// LookupConversion returns the id of the journey a stored conversion
// closed, or attribution.ErrNotFound.
func (db *DB) LookupConversion(ctx context.Context, conversionID string) (journeyID string, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_conversions", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx,
		db.rebind(`SELECT journey_id FROM attribution_conversions WHERE conversion_id = ?`),
		conversionID).Scan(&journeyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", attribution.ErrNotFound
		}
		return "", fmt.Errorf("failed to look up conversion %s: %w", conversionID, err)
	}
	return journeyID, nil
}

// GetConversionForJourney returns the journey's conversion, or
// attribution.ErrNotFound.
func (db *DB) GetConversionForJourney(ctx context.Context, journeyID string) (c *attribution.Conversion, err error) {
	start := time.Now()
	defer func() { observe("select", "attribution_conversions", start, err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + conversionColumns + ` FROM attribution_conversions
		WHERE journey_id = ?
		ORDER BY converted_at DESC
		LIMIT 1`
	conv, _, err := scanConversion(db.conn.QueryRowContext(ctx, db.rebind(query), journeyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, attribution.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversion for journey %s: %w", journeyID, err)
	}
	return &conv, nil
}
