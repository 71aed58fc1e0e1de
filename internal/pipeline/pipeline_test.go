package pipeline

import (
	"io"
	"log/slog"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/manifest"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/workspace"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
}

func newPipeline(t *testing.T) (*Pipeline, workspace.Paths, storage.Provider) {
	t.Helper()
	paths, store := testutil.TestWorkspace(t)
	return New(store, paths, discard, fixedNow), paths, store
}

func TestInitBootstrapsWorkspace(t *testing.T) {
	p, paths, store := newPipeline(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !store.Exists(path.Join(paths.Taxonomy, "domains.json")) {
		t.Error("domains.json stub missing")
	}
	if !store.Exists(path.Join(paths.Taxonomy, "tags.json")) {
		t.Error("tags.json stub missing")
	}
	if !store.Exists(paths.Manifest) {
		t.Error("first manifest missing")
	}
}

func TestScanThenOrganizeEndToEnd(t *testing.T) {
	p, paths, store := newPipeline(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_ = store.Write("staging/foo.md", []byte("Hello doctrine world"))
	if err := p.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Hand-edit the manifest row the way a human classifier would.
	records, err := manifest.Load(store, paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	records[0].SuggestedDomain = "tradecraft"
	records[0].MaturationStage = "formalizedframework"
	records[0].SuggestedTags = "humint;code-snippet"
	if err := manifest.Write(store, paths, records); err != nil {
		t.Fatalf("Write: %v", err)
	}

	res, err := p.Organize(true)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if res.Moved != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}

	dest := "archive/tradecraft/formalized_frameworks/tradecraft-foo-2025-06-01.md"
	data, err := store.Read(dest)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"patterndomain: tradecraft\n",
		"maturationstage: formalizedframework\n",
		`patterntags: ["humint", "code-snippet"]` + "\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("header missing %q:\n%s", want, content)
		}
	}
	if !strings.HasSuffix(content, "Hello doctrine world") {
		t.Errorf("body lost:\n%s", content)
	}
	if store.Exists("staging/foo.md") {
		t.Error("staged source still exists")
	}

	// Indexes were regenerated and reference the new document.
	idx, err := store.Read(path.Join(paths.Indexes, "index-domains.md"))
	if err != nil {
		t.Fatalf("index missing: %v", err)
	}
	if !strings.Contains(string(idx), "tradecraft-foo-2025-06-01") {
		t.Errorf("index does not reference archived file:\n%s", idx)
	}

	// A consistent tree validates cleanly.
	issues, err := p.ValidateLinks()
	if err != nil {
		t.Fatalf("ValidateLinks: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("link issues = %v", issues)
	}
}

func TestValidateTaxonomyAfterInit(t *testing.T) {
	p, paths, store := newPipeline(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	_ = store.Write("staging/a.md", []byte("plain note"))
	if err := p.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Default suggestions always come from the stub vocabulary.
	issues, err := p.ValidateTaxonomy()
	if err != nil {
		t.Fatalf("ValidateTaxonomy: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}

	// Corrupt one row and the validator flags it.
	records, _ := manifest.Load(store, paths)
	records[0].SuggestedDomain = "astrology"
	_ = manifest.Write(store, paths, records)

	issues, err = p.ValidateTaxonomy()
	if err != nil {
		t.Fatalf("ValidateTaxonomy: %v", err)
	}
	if len(issues) != 1 {
		t.Errorf("issues = %v, want one", issues)
	}
}

func TestCleanupRefusesWithoutForce(t *testing.T) {
	p, _, store := newPipeline(t)
	_ = store.Write("staging/leftover.md", []byte("x"))

	if err := p.Cleanup(false); err == nil {
		t.Fatal("expected refusal with files present")
	}
	if !store.Exists("staging/leftover.md") {
		t.Error("file deleted despite refusal")
	}

	if err := p.Cleanup(true); err != nil {
		t.Fatalf("Cleanup --force: %v", err)
	}
	if store.Exists("staging/leftover.md") {
		t.Error("file survived forced cleanup")
	}
}

func TestCleanupEmptyStaging(t *testing.T) {
	p, _, _ := newPipeline(t)
	if err := p.Cleanup(false); err != nil {
		t.Fatalf("Cleanup on empty staging: %v", err)
	}
}

func TestCleanupMissingStagingIsNoop(t *testing.T) {
	p, paths, store := newPipeline(t)
	_ = store.RemoveTree(paths.Staging)
	if err := p.Cleanup(false); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
}

func TestIngestThenScan(t *testing.T) {
	p, paths, store := newPipeline(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	dest, err := p.Ingest("Captured Thought\n\nsome body")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !store.Exists(dest) {
		t.Fatalf("ingested file missing: %s", dest)
	}
	if err := p.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	records, err := manifest.Load(store, paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 || records[0].OriginalPath != dest {
		t.Errorf("records = %+v", records)
	}
}

func TestExportAfterOrganize(t *testing.T) {
	p, _, store := newPipeline(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	_ = store.Write("archive/tradecraft/experiential_data/doc.md",
		[]byte("---\npatterndomain: tradecraft\nmaturationstage: experientialdata\npatterntags: []\n---\n\nbody"))

	if err := p.ExportJSON(); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if err := p.ExportZip(); err != nil {
		t.Fatalf("ExportZip: %v", err)
	}
	issues, err := p.VerifyBundle()
	if err != nil {
		t.Fatalf("VerifyBundle: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
}
