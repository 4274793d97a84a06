package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/adyen/storesmoke/internal/models"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunRepository stores harness runs and their scenario results
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a run repository over db
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun writes a run and all of its results in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run *models.Run) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, base_url, browser, passed, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.BaseURL, run.Browser, run.Passed(), run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for i, res := range run.Results {
		softFailures, err := marshalList(res.SoftFailures)
		if err != nil {
			return fmt.Errorf("failed to encode soft failures: %w", err)
		}
		artifacts, err := marshalList(res.Artifacts)
		if err != nil {
			return fmt.Errorf("failed to encode artifacts: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scenario_results
				(run_id, position, scenario, status, attempts, duration_ms, error, soft_failures, artifacts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, run.ID, i, res.Scenario, string(res.Status), res.Attempts,
			res.Duration.Milliseconds(), res.Error, softFailures, artifacts)
		if err != nil {
			return fmt.Errorf("failed to create result for %s: %w", res.Scenario, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun loads a run with its results in report order.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run := &models.Run{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, base_url, browser, started_at, finished_at
		FROM runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.BaseURL, &run.Browser, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT scenario, status, attempts, duration_ms, error, soft_failures, artifacts
		FROM scenario_results
		WHERE run_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			res          models.ScenarioResult
			status       string
			durationMS   int64
			softFailures []byte
			artifacts    []byte
		)
		if err := rows.Scan(&res.Scenario, &status, &res.Attempts, &durationMS, &res.Error, &softFailures, &artifacts); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.Status = models.ScenarioStatus(status)
		res.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal(softFailures, &res.SoftFailures); err != nil {
			return nil, fmt.Errorf("failed to decode soft failures: %w", err)
		}
		if err := json.Unmarshal(artifacts, &res.Artifacts); err != nil {
			return nil, fmt.Errorf("failed to decode artifacts: %w", err)
		}
		run.Results = append(run.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return run, nil
}

// RecentRunIDs returns up to limit run IDs, newest first.
func (r *RunRepository) RecentRunIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM runs ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// marshalList encodes a nil slice as an empty JSON array.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
