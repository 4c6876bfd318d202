// Package testdb provides a shared test database helper for fast,
// realistic testing against an in-memory SQLite database.
package testdb

import (
	"context"
	"testing"

	"github.com/jhleee/geo-search-api/infrastructure/persistence"
	"github.com/jhleee/geo-search-api/internal/database"
)

// New creates an in-memory SQLite database. The database is automatically
// closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewStore creates an in-memory SQLite database with a fully initialized
// LocationStore: schema migrated, FTS5 and R-tree indexes attached.
func NewStore(t *testing.T) *persistence.LocationStore {
	t.Helper()
	store, err := persistence.NewLocationStore(New(t), nil)
	if err != nil {
		t.Fatalf("testdb.NewStore: %v", err)
	}
	return store
}
