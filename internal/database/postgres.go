package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adyen/storesmoke/internal/config"
	_ "github.com/lib/pq"
)

// Connect opens the run-history database described by cfg and verifies it
// is reachable.
func Connect(ctx context.Context, cfg *config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A run writes once at the end, so the pool stays small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
