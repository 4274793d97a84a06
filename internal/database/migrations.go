package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the run-history tables. It is safe to apply repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id UUID PRIMARY KEY,
	base_url TEXT NOT NULL,
	browser VARCHAR(50) NOT NULL,
	passed BOOLEAN NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scenario_results (
	run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	scenario VARCHAR(255) NOT NULL,
	status VARCHAR(50) NOT NULL,
	attempts INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	soft_failures JSONB NOT NULL DEFAULT '[]',
	artifacts JSONB NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_scenario_results_status ON scenario_results(status);
`

// RunMigrations creates the run-history tables in db
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create run history tables: %w", err)
	}

	return nil
}
