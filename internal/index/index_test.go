package index

import (
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func archiveDoc(domain, stage, name, body string) (string, []byte) {
	meta := header.Meta{
		PatternDomain:   domain,
		MaturationStage: stage,
	}
	p := path.Join("archive", domain, "experiential_data", name)
	return p, []byte(meta.Render() + body)
}

func TestGenerateGroupsByDomain(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	p1, d1 := archiveDoc("tradecraft", "experientialdata", "one.md", "first body")
	p2, d2 := archiveDoc("neurobiology", "experientialdata", "two.md", "second body")
	_ = store.Write(p1, d1)
	_ = store.Write(p2, d2)

	if err := Generate(store, paths, discard); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := store.Read("_indexes/index-domains.md")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "# Index by Pattern Domain") {
		t.Error("missing title")
	}
	if !strings.Contains(content, "## neurobiology") || !strings.Contains(content, "## tradecraft") {
		t.Errorf("missing domain sections:\n%s", content)
	}
	// Groups are emitted in sorted order.
	if strings.Index(content, "## neurobiology") > strings.Index(content, "## tradecraft") {
		t.Error("groups not sorted")
	}
	if !strings.Contains(content, "### [one]("+"../"+p1+")") {
		t.Errorf("missing relative link:\n%s", content)
	}
	if !strings.Contains(content, "> first body") {
		t.Errorf("missing snippet:\n%s", content)
	}
	if !strings.Contains(content, "- **Domain:** `tradecraft`") {
		t.Errorf("missing domain field:\n%s", content)
	}
}

func TestGenerateUncategorizedBucket(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	_ = store.Write("archive/stray.md", []byte("no header at all"))

	if err := Generate(store, paths, discard); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, _ := store.Read("_indexes/index-domains.md")
	if !strings.Contains(string(data), "## Uncategorized") {
		t.Errorf("missing Uncategorized bucket:\n%s", data)
	}
	if !strings.Contains(string(data), "- **Domain:** `N/A`") {
		t.Errorf("missing N/A placeholder:\n%s", data)
	}
}

func TestGenerateSkipsReadme(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	_ = store.Write("archive/README.md", []byte("about this archive"))

	if err := Generate(store, paths, discard); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, _ := store.Read("_indexes/index-domains.md")
	if strings.Contains(string(data), "README") {
		t.Errorf("readme should not be indexed:\n%s", data)
	}
}

func TestGenerateAllThreeViews(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	p, d := archiveDoc("tradecraft", "experientialdata", "doc.md", "body")
	_ = store.Write(p, d)

	if err := Generate(store, paths, discard); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, v := range Views {
		if !store.Exists(path.Join(paths.Indexes, v.File)) {
			t.Errorf("missing view %s", v.File)
		}
	}
}

func TestGenerateMissingArchive(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	if err := store.RemoveTree(paths.Archive); err != nil {
		t.Fatalf("RemoveTree: %v", err)
	}
	err := Generate(store, paths, discard)
	if !errors.Is(err, apperr.ErrMissingPrerequisite) {
		t.Errorf("err = %v, want ErrMissingPrerequisite", err)
	}
}

func TestValidateConsistentArchive(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	p, d := archiveDoc("tradecraft", "experientialdata", "doc.md", "body")
	_ = store.Write(p, d)
	if err := Generate(store, paths, discard); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	issues, err := Validate(store, paths, discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected zero issues, got %v", issues)
	}
}

func TestValidateReportsExactlyTheBrokenLink(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	p, d := archiveDoc("tradecraft", "experientialdata", "doc.md", "body")
	_ = store.Write(p, d)

	idx := "# Index\n\n" +
		"### [doc](../" + p + ")\n" +
		"### [ghost](../archive/tradecraft/experiential_data/ghost.md)\n"
	_ = store.Write("_indexes/index-domains.md", []byte(idx))

	issues, err := Validate(store, paths, discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %v, want exactly one", issues)
	}
	if !strings.Contains(issues[0], "broken link") || !strings.Contains(issues[0], "ghost.md") {
		t.Errorf("issue = %q", issues[0])
	}
}

func TestValidateReportsOrphans(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	p, d := archiveDoc("tradecraft", "experientialdata", "lonely.md", "body")
	_ = store.Write(p, d)
	_ = store.Write("_indexes/index-domains.md", []byte("# Index\n\nno links here\n"))

	issues, err := Validate(store, paths, discard)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(issues) != 1 || !strings.Contains(issues[0], "orphaned file") {
		t.Errorf("issues = %v", issues)
	}
	if !strings.Contains(issues[0], p) {
		t.Errorf("orphan path missing: %q", issues[0])
	}
}

func TestValidateMissingIndexDir(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	if err := store.RemoveTree(paths.Indexes); err != nil {
		t.Fatalf("RemoveTree: %v", err)
	}
	_, err := Validate(store, paths, discard)
	if !errors.Is(err, apperr.ErrMissingPrerequisite) {
		t.Errorf("err = %v, want ErrMissingPrerequisite", err)
	}
}
