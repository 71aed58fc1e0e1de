package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestWriteBundle(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	meta := header.Meta{
		PatternDomain:   "tradecraft",
		MaturationStage: "experientialdata",
		PatternTags:     []string{"humint"},
	}
	_ = store.Write("archive/tradecraft/experiential_data/a.md", []byte(meta.Render()+"body text"))
	_ = store.Write("_indexes/index-domains.md", []byte("# Index\n"))

	if err := WriteBundle(store, paths, discard, DefaultBundleFile); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	data, err := store.Read(DefaultBundleFile)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		t.Fatalf("parse bundle: %v", err)
	}
	if bundle.Meta.Version != "1.0" || bundle.Meta.ExportDate == "" {
		t.Errorf("meta = %+v", bundle.Meta)
	}
	if len(bundle.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(bundle.Files))
	}

	var doc BundleEntry
	for _, f := range bundle.Files {
		if f.Filename == "a.md" {
			doc = f
		}
	}
	if doc.Path != "archive/tradecraft/experiential_data/a.md" {
		t.Errorf("path = %q", doc.Path)
	}
	if doc.Metadata["patterndomain"] != "tradecraft" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
	tags, ok := doc.Metadata["patterntags"].([]any)
	if !ok || len(tags) != 1 || tags[0] != "humint" {
		t.Errorf("patterntags = %v", doc.Metadata["patterntags"])
	}
	if doc.Content != "body text" {
		t.Errorf("content = %q", doc.Content)
	}
}

func TestWriteBundleMissingArchive(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	_ = store.RemoveTree(paths.Archive)

	err := WriteBundle(store, paths, discard, DefaultBundleFile)
	if !errors.Is(err, apperr.ErrMissingPrerequisite) {
		t.Errorf("err = %v, want ErrMissingPrerequisite", err)
	}
}

func TestVerifyCleanBundle(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	meta := header.Meta{PatternDomain: "tradecraft", MaturationStage: "experientialdata"}
	_ = store.Write("archive/tradecraft/experiential_data/a.md", []byte(meta.Render()+"x"))
	_ = store.Write("_indexes/index-domains.md", []byte("# Index, no header\n"))

	if err := WriteBundle(store, paths, discard, DefaultBundleFile); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}
	issues, err := Verify(store, paths, DefaultBundleFile)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	// Index entries carry no header and must not be flagged.
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
}

func TestVerifyFlagsMissingKeys(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	bundle := Bundle{
		Meta: BundleMeta{ExportDate: "2025-06-01", Version: "1.0"},
		Files: []BundleEntry{
			{
				Filename: "bad.md",
				Path:     "archive/tradecraft/experiential_data/bad.md",
				Metadata: map[string]any{"patterntags": "not-a-list"},
				Content:  "x",
			},
		},
	}
	data, _ := json.Marshal(bundle)
	_ = store.Write(DefaultBundleFile, data)

	issues, err := Verify(store, paths, DefaultBundleFile)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(issues) != 3 {
		t.Fatalf("issues = %v, want 3", issues)
	}
	joined := strings.Join(issues, "\n")
	for _, want := range []string{"missing patterndomain", "missing maturationstage", "patterntags is not a list"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing issue %q in %v", want, issues)
		}
	}
}

func TestVerifyMissingBundle(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	_, err := Verify(store, paths, DefaultBundleFile)
	if !errors.Is(err, apperr.ErrMissingPrerequisite) {
		t.Errorf("err = %v, want ErrMissingPrerequisite", err)
	}
}

func TestWriteZip(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	_ = store.Write("archive/tradecraft/experiential_data/a.md", []byte("alpha"))
	_ = store.Write("_indexes/index-domains.md", []byte("# Index\n"))

	if err := WriteZip(store, paths, discard, DefaultZipFile); err != nil {
		t.Fatalf("WriteZip: %v", err)
	}
	data, err := store.Read(DefaultZipFile)
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["archive/tradecraft/experiential_data/a.md"] || !names["_indexes/index-domains.md"] {
		t.Errorf("zip entries = %v", names)
	}

	rc, err := zr.Open("archive/tradecraft/experiential_data/a.md")
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	content, _ := io.ReadAll(rc)
	rc.Close()
	if string(content) != "alpha" {
		t.Errorf("entry content = %q", content)
	}
}
