//go:build integration

package integration_test

import (
	"database/sql"
	"os"
	"testing"

	"github.com/getpup/seeder/store/sqlstore"
	_ "github.com/lib/pq"
)

const testTable = "integration_seeders"

// getTestDB returns a database connection for integration tests.
// It reads the DATABASE_URL environment variable and skips the test if not set.
func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return db
}

// setupTables creates the ledger table and the tables seeded by the tests.
func setupTables(t *testing.T, db *sql.DB) {
	t.Helper()

	migrationSQL := sqlstore.MigrationUp(sqlstore.Postgres, sqlstore.TableConfig{Table: testTable})
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("failed to create ledger table: %v", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS integration_plans (code TEXT PRIMARY KEY, price INTEGER NOT NULL)`); err != nil {
		t.Fatalf("failed to create plans table: %v", err)
	}
}

// cleanupTables truncates the tables to clean up test data.
// Errors are logged but don't fail the test (cleanup is best-effort).
func cleanupTables(t *testing.T, db *sql.DB) {
	t.Helper()

	for _, table := range []string{testTable, "integration_plans"} {
		if _, err := db.Exec("TRUNCATE " + table); err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// teardownTables drops the tables.
// Errors are logged but don't fail the test.
func teardownTables(t *testing.T, db *sql.DB) {
	t.Helper()

	migrationSQL := sqlstore.MigrationDown(sqlstore.Postgres, sqlstore.TableConfig{Table: testTable})
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Logf("warning: failed to drop ledger table: %v", err)
	}
	if _, err := db.Exec(`DROP TABLE IF EXISTS integration_plans`); err != nil {
		t.Logf("warning: failed to drop plans table: %v", err)
	}
}
