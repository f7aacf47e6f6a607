package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/persistence/migrations"
	"github.com/example/worktime/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite store in a temporary directory and
// seeds it with snap when given. The store is closed on test cleanup.
func NewSQLiteStore(tb testing.TB, snap *persistence.Snapshot) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "worktime.db")
	ctx := context.Background()

	if err := migrations.Up(ctx, persistence.DriverSQLite, path, nil); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if snap != nil {
		if err := store.Save(ctx, snap); err != nil {
			tb.Fatalf("failed to seed storage: %v", err)
		}
	}
	return store
}
