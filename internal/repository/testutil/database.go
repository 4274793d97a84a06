package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/adyen/storesmoke/internal/config"
	"github.com/adyen/storesmoke/internal/database"
	_ "github.com/lib/pq"
)

// TestDatabase is a throwaway schema in the configured Postgres database
type TestDatabase struct {
	DB         *sql.DB
	SchemaName string
	masterDB   *sql.DB
}

// SetupTestDatabase creates an isolated schema for testing and applies the
// run-history migrations to it.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	connConfig, err := config.LoadPostgresConfig(func(key string) string {
		switch key {
		case "POSTGRES_USER":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_PASSWORD":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_DB":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_HOSTNAME":
			return getEnvOrDefault(key, "localhost")
		default:
			return os.Getenv(key)
		}
	})
	if err != nil {
		t.Fatalf("Failed to load postgres config: %v", err)
	}

	masterConnStr := connConfig.ConnectionString()
	masterDB, err := sql.Open("postgres", masterConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to master database: %v", err)
	}
	if err := masterDB.Ping(); err != nil {
		masterDB.Close()
		t.Fatalf("Failed to ping master database: %v", err)
	}

	schemaName := fmt.Sprintf("test_runs_%d_%d", time.Now().UnixNano(), rand.Intn(10000))
	if _, err := masterDB.Exec(fmt.Sprintf("CREATE SCHEMA %s", schemaName)); err != nil {
		masterDB.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	testDB, err := sql.Open("postgres", fmt.Sprintf("%s search_path=%s", masterConnStr, schemaName))
	if err != nil {
		masterDB.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schemaName))
		masterDB.Close()
		t.Fatalf("Failed to connect to test schema: %v", err)
	}
	testDB.SetMaxOpenConns(2)

	td := &TestDatabase{DB: testDB, SchemaName: schemaName, masterDB: masterDB}
	if err := database.RunMigrations(context.Background(), testDB); err != nil {
		td.Teardown(t)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return td
}

// Teardown drops the test schema and closes both connections
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		td.DB.Close()
	}
	if td.masterDB != nil {
		if _, err := td.masterDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", td.SchemaName)); err != nil {
			t.Logf("Warning: Failed to drop test schema %s: %v", td.SchemaName, err)
		}
		td.masterDB.Close()
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
