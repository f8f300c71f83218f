package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	// Every pooled connection gets its own :memory: database, so the schema
	// only exists on the connection that ran the migration.
	database.SetMaxOpenConns(1)

	if err := Migrate(database); err != nil {
		database.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { database.Close() })

	return database
}
