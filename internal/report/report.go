// Package report derives aggregate statistics from the organized archive
// tree. Purely read-only.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Build walks the archive tree and tallies documents by domain (first path
// segment under the archive root), stage (second segment), and, when
// withTags is set, by header tag.
func Build(store storage.Provider, paths workspace.Paths, logger *slog.Logger, withTags bool) (*models.Stats, error) {
	metas, err := store.List(paths.Archive, ".md")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("report: %s: %w", paths.Archive, apperr.ErrMissingPrerequisite)
		}
		return nil, fmt.Errorf("report: scan archive: %w", err)
	}

	stats := &models.Stats{
		Domains: make(map[string]int),
		Stages:  make(map[string]int),
		Tags:    make(map[string]int),
	}

	for _, m := range metas {
		if underDir(m.Path, paths.Taxonomy) || strings.EqualFold(path.Base(m.Path), "readme.md") {
			continue
		}
		stats.TotalFiles++

		rel := strings.TrimPrefix(m.Path, paths.Archive+"/")
		parts := strings.Split(rel, "/")
		if len(parts) >= 3 {
			stats.Domains[parts[0]]++
			stats.Stages[parts[1]]++
		}

		if !withTags {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("report: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		fields, _ := header.Parse(data)
		for _, tag := range fields.List("patterntags") {
			stats.Tags[tag]++
		}
	}
	return stats, nil
}

// Render formats stats for human-facing output.
func Render(stats *models.Stats) string {
	var b strings.Builder
	b.WriteString("=== Knowledge Archive Statistics ===\n")
	fmt.Fprintf(&b, "Total Documents: %d\n", stats.TotalFiles)

	b.WriteString("\n--- By Domain ---\n")
	writeCounts(&b, stats.Domains)

	b.WriteString("\n--- By Maturation Stage ---\n")
	writeCounts(&b, stats.Stages)

	if len(stats.Tags) > 0 {
		b.WriteString("\n--- By Tag ---\n")
		writeCounts(&b, stats.Tags)
	}
	b.WriteString("====================================\n")
	return b.String()
}

func writeCounts(b *strings.Builder, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %d\n", k, counts[k])
	}
}

func underDir(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}
