// Package testutil provides shared test helpers for setting up workspaces
// and search databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// TestDB creates a temporary SQLite search index that is automatically
// cleaned up.
func TestDB(t *testing.T) *search.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := search.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace with the canonical layout and
// a storage.Provider rooted at it.
func TestWorkspace(t *testing.T) (workspace.Paths, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	paths := workspace.Defaults(root)

	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{paths.Staging, paths.Archive, paths.Taxonomy, paths.Indexes} {
		if err := store.MkdirAll(dir); err != nil {
			t.Fatal(err)
		}
	}
	return paths, store
}
