package testsupport

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"showsync/internal/config"
	"showsync/internal/storage"
)

// MustOpenStore opens a storage.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// ExecSQL runs a raw statement against the test database, bypassing the Store
// API. Used to seed malformed state for corruption tests.
func ExecSQL(t testing.TB, cfg *config.Config, stmt string, args ...any) {
	t.Helper()

	db, err := sql.Open("sqlite", cfg.Paths.CacheDB)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(stmt, args...); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}
