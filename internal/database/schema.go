// PathCredit - Multi-Touch Marketing Attribution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pathcredit

package database

import (
	"fmt"
)

// Column types are restricted to those DuckDB and PostgreSQL both accept.
// Timestamps are stored as UTC TIMESTAMP and JSON as TEXT.
//
// Columns rewritten by ON CONFLICT DO UPDATE must not carry a secondary
// index; DuckDB rejects assignments to indexed columns in upserts.

const createTouchpointsTable = `
CREATE TABLE IF NOT EXISTS attribution_touchpoints (
	event_id TEXT PRIMARY KEY,
	journey_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	device_id TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL,
	platform TEXT NOT NULL,
	event_timestamp TIMESTAMP NOT NULL,
	dedup_key TEXT NOT NULL DEFAULT '',
	campaign_id TEXT NOT NULL DEFAULT '',
	campaign_name TEXT NOT NULL DEFAULT '',
	ad_set_id TEXT NOT NULL DEFAULT '',
	ad_id TEXT NOT NULL DEFAULT '',
	utm_source TEXT NOT NULL DEFAULT '',
	utm_medium TEXT NOT NULL DEFAULT '',
	utm_campaign TEXT NOT NULL DEFAULT '',
	utm_content TEXT NOT NULL DEFAULT '',
	utm_term TEXT NOT NULL DEFAULT '',
	page_url TEXT NOT NULL DEFAULT '',
	referrer_url TEXT NOT NULL DEFAULT '',
	device_type TEXT NOT NULL DEFAULT '',
	browser TEXT NOT NULL DEFAULT '',
	os TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	region TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	quantity INTEGER NOT NULL DEFAULT 0,
	time_on_page DOUBLE PRECISION NOT NULL DEFAULT 0,
	scroll_depth DOUBLE PRECISION NOT NULL DEFAULT 0,
	engagement_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	time_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
	custom_data TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);`

const createConversionsTable = `
CREATE TABLE IF NOT EXISTS attribution_conversions (
	conversion_id TEXT PRIMARY KEY,
	journey_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	conversion_type TEXT NOT NULL,
	converted_at TIMESTAMP NOT NULL,
	revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	lifetime_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	attribution_window_days INTEGER NOT NULL DEFAULT 30,
	order_id TEXT NOT NULL DEFAULT '',
	product_ids TEXT NOT NULL DEFAULT '',
	product_names TEXT NOT NULL DEFAULT '',
	page_url TEXT NOT NULL DEFAULT '',
	device_type TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0,
	custom_data TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);`

const createJourneysTable = `
CREATE TABLE IF NOT EXISTS attribution_journeys (
	journey_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	tenant_id TEXT NOT NULL DEFAULT '',
	first_touch_at TIMESTAMP NOT NULL,
	last_touch_at TIMESTAMP NOT NULL,
	conversion_at TIMESTAMP,
	total_touchpoints INTEGER NOT NULL DEFAULT 0,
	unique_platforms INTEGER NOT NULL DEFAULT 0,
	platforms TEXT NOT NULL DEFAULT '',
	converted BOOLEAN NOT NULL DEFAULT FALSE,
	conversion_id TEXT NOT NULL DEFAULT '',
	conversion_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	days_to_convert DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

const createResultsTable = `
CREATE TABLE IF NOT EXISTS attribution_results (
	id TEXT PRIMARY KEY,
	journey_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	tenant_id TEXT NOT NULL DEFAULT '',
	model_type TEXT NOT NULL,
	model_version TEXT NOT NULL,
	converted BOOLEAN NOT NULL DEFAULT FALSE,
	conversion_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	conversion_date TIMESTAMP,
	total_touchpoints INTEGER NOT NULL DEFAULT 0,
	unique_platforms INTEGER NOT NULL DEFAULT 0,
	days_to_convert DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	platform_attribution TEXT NOT NULL DEFAULT '',
	campaign_attribution TEXT NOT NULL DEFAULT '',
	insights TEXT NOT NULL DEFAULT '',
	analyzed_at TIMESTAMP NOT NULL
);`

const createModelStatesTable = `
CREATE TABLE IF NOT EXISTS attribution_model_states (
	id TEXT PRIMARY KEY,
	model_type TEXT NOT NULL,
	version TEXT NOT NULL,
	tenant_id TEXT NOT NULL DEFAULT '',
	trained_at TIMESTAMP NOT NULL,
	training_start TIMESTAMP,
	training_end TIMESTAMP,
	journeys_trained INTEGER NOT NULL DEFAULT 0,
	model_params TEXT NOT NULL DEFAULT '',
	transition_matrix TEXT NOT NULL DEFAULT '',
	state_counts TEXT NOT NULL DEFAULT '',
	conversion_probs TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT FALSE,
	is_trained BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL
);`

const createBatchJobsTable = `
CREATE TABLE IF NOT EXISTS attribution_batch_jobs (
	id TEXT PRIMARY KEY,
	model_type TEXT NOT NULL,
	tenant_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	start_date TIMESTAMP,
	end_date TIMESTAMP,
	journey_limit INTEGER NOT NULL DEFAULT 0,
	total_journeys INTEGER NOT NULL DEFAULT 0,
	processed_journeys INTEGER NOT NULL DEFAULT 0,
	failed_journeys INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	report TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	started_at TIMESTAMP,
	completed_at TIMESTAMP
);`

// indexQueries returns secondary indexes. None covers a column rewritten
// by an upsert.
func indexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_touchpoints_user_ts ON attribution_touchpoints(user_id, event_timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_user ON attribution_conversions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_user ON attribution_journeys(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_journey ON attribution_results(journey_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_model ON attribution_results(model_type)`,
		`CREATE INDEX IF NOT EXISTS idx_model_states_key ON attribution_model_states(model_type, tenant_id)`,
	}
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
