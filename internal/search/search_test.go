package search

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// Helpers are local rather than taken from testutil: testutil imports this
// package for TestDB.

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testWorkspace(t *testing.T) (workspace.Paths, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	paths := workspace.Defaults(root)
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	for _, dir := range []string{paths.Staging, paths.Archive, paths.Taxonomy, paths.Indexes} {
		if err := store.MkdirAll(dir); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	return paths, store
}

func TestUpsertAndSearch(t *testing.T) {
	db := testDB(t)
	row := DocRow{
		Path:      "archive/tradecraft/experiential_data/a.md",
		Domain:    "tradecraft",
		Stage:     "experientialdata",
		Tags:      []string{"humint"},
		Checksum:  "abc",
		UpdatedAt: time.Now(),
	}
	if err := db.Upsert(row, "surveillance detection routes"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := db.Search("surveillance", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Path != row.Path || results[0].Domain != "tradecraft" {
		t.Errorf("result = %+v", results[0])
	}

	// Upserting the same path again must not duplicate.
	if err := db.Upsert(row, "updated body"); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	results, _ = db.Search("updated", 10)
	if len(results) != 1 {
		t.Errorf("results after upsert = %d, want 1", len(results))
	}
}

func TestDeleteRemovesDocument(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(DocRow{Path: "archive/a.md", Domain: "tradecraft"}, "body text")

	if err := db.Delete("archive/a.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	results, _ := db.Search("body", 10)
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}

func TestFilter(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(DocRow{Path: "archive/t/a.md", Domain: "tradecraft", Stage: "experientialdata", Tags: []string{"humint"}}, "a")
	_ = db.Upsert(DocRow{Path: "archive/n/b.md", Domain: "neurobiology", Stage: "experientialdata", Tags: []string{"c-ptsd"}}, "b")

	byDomain, err := db.Filter("tradecraft", "", 0)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(byDomain) != 1 || byDomain[0].Path != "archive/t/a.md" {
		t.Errorf("byDomain = %+v", byDomain)
	}

	byTag, err := db.Filter("", "c-ptsd", 0)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Domain != "neurobiology" {
		t.Errorf("byTag = %+v", byTag)
	}

	all, err := db.Filter("", "", 0)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}
	// Results are ordered by path.
	if all[0].Path > all[1].Path {
		t.Errorf("not sorted: %+v", all)
	}
}

func TestSyncIndexesArchive(t *testing.T) {
	db := testDB(t)
	paths, store := testWorkspace(t)

	meta := header.Meta{PatternDomain: "tradecraft", MaturationStage: "experientialdata", PatternTags: []string{"humint"}}
	_ = store.Write("archive/tradecraft/experiential_data/a.md", []byte(meta.Render()+"alpha body"))
	_ = store.Write("archive/README.md", []byte("not indexed"))
	_ = store.Write("staging/ignored.md", []byte("not archived"))

	if err := Sync(db, store, paths, discard); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	results, _ := db.Search("alpha", 10)
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Domain != "tradecraft" || results[0].Stage != "experientialdata" {
		t.Errorf("result = %+v", results[0])
	}
	if hits, _ := db.Search("not indexed", 10); len(hits) != 0 {
		t.Errorf("readme leaked into index: %+v", hits)
	}
	if hits, _ := db.Search("not archived", 10); len(hits) != 0 {
		t.Errorf("staging leaked into index: %+v", hits)
	}
}

func TestSyncRemovesStaleEntries(t *testing.T) {
	db := testDB(t)
	paths, store := testWorkspace(t)

	_ = store.Write("archive/t/e/a.md", []byte("here today"))
	if err := Sync(db, store, paths, discard); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if hits, _ := db.Search("today", 10); len(hits) != 1 {
		t.Fatalf("hits = %+v", hits)
	}

	_ = store.Delete("archive/t/e/a.md")
	if err := Sync(db, store, paths, discard); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if hits, _ := db.Search("today", 10); len(hits) != 0 {
		t.Errorf("stale entry survived: %+v", hits)
	}
}

func TestSyncSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	paths, store := testWorkspace(t)
	_ = store.Write("archive/t/e/a.md", []byte("stable content"))

	if err := Sync(db, store, paths, discard); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	before, _ := db.AllChecksums()

	// No file changes: a second sync must leave checksums identical.
	if err := Sync(db, store, paths, discard); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	after, _ := db.AllChecksums()
	if len(before) != 1 || len(after) != 1 || before["archive/t/e/a.md"] != after["archive/t/e/a.md"] {
		t.Errorf("checksums changed: before=%v after=%v", before, after)
	}
}
