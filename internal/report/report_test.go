package report

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuildTalliesDomainsAndStages(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	meta := header.Meta{PatternDomain: "tradecraft", PatternTags: []string{"humint"}}
	_ = store.Write("archive/tradecraft/experiential_data/a.md", []byte(meta.Render()+"a"))
	_ = store.Write("archive/tradecraft/formalized_frameworks/b.md", []byte(meta.Render()+"b"))
	_ = store.Write("archive/neurobiology/experiential_data/c.md", []byte(meta.Render()+"c"))
	_ = store.Write("archive/README.md", []byte("about"))

	stats, err := Build(store, paths, discard, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.TotalFiles != 3 {
		t.Errorf("total = %d, want 3", stats.TotalFiles)
	}
	if stats.Domains["tradecraft"] != 2 || stats.Domains["neurobiology"] != 1 {
		t.Errorf("domains = %v", stats.Domains)
	}
	if stats.Stages["experiential_data"] != 2 || stats.Stages["formalized_frameworks"] != 1 {
		t.Errorf("stages = %v", stats.Stages)
	}
	if len(stats.Tags) != 0 {
		t.Errorf("tags counted without withTags: %v", stats.Tags)
	}
}

func TestBuildWithTags(t *testing.T) {
	paths, store := testutil.TestWorkspace(t)
	m1 := header.Meta{PatternDomain: "tradecraft", PatternTags: []string{"humint", "non-kinetic"}}
	m2 := header.Meta{PatternDomain: "tradecraft", PatternTags: []string{"humint"}}
	_ = store.Write("archive/tradecraft/experiential_data/a.md", []byte(m1.Render()+"a"))
	_ = store.Write("archive/tradecraft/experiential_data/b.md", []byte(m2.Render()+"b"))

	stats, err := Build(store, paths, discard, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.Tags["humint"] != 2 || stats.Tags["non-kinetic"] != 1 {
		t.Errorf("tags = %v", stats.Tags)
	}
}

func TestRender(t *testing.T) {
	stats := &models.Stats{
		TotalFiles: 2,
		Domains:    map[string]int{"tradecraft": 2},
		Stages:     map[string]int{"experiential_data": 2},
		Tags:       map[string]int{},
	}
	out := Render(stats)
	if !strings.HasPrefix(out, "=== Knowledge Archive Statistics ===\n") {
		t.Errorf("missing banner:\n%s", out)
	}
	if !strings.Contains(out, "Total Documents: 2\n") {
		t.Errorf("missing total:\n%s", out)
	}
	if !strings.Contains(out, "--- By Domain ---\n  tradecraft: 2\n") {
		t.Errorf("missing domain tally:\n%s", out)
	}
	if strings.Contains(out, "--- By Tag ---") {
		t.Errorf("tag section should be omitted when empty:\n%s", out)
	}
}

func TestRenderIncludesTagsWhenPresent(t *testing.T) {
	stats := &models.Stats{
		Domains: map[string]int{},
		Stages:  map[string]int{},
		Tags:    map[string]int{"humint": 1},
	}
	out := Render(stats)
	if !strings.Contains(out, "--- By Tag ---\n  humint: 1\n") {
		t.Errorf("missing tag tally:\n%s", out)
	}
}
