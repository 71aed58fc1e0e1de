// Package ingest captures raw text into the staging area, naming the file
// after its first non-empty line.
package ingest

import (
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

var (
	unsafeRe   = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	collapseRe = regexp.MustCompile(`[\s-]+`)
)

const maxSlugLen = 50

// Slug derives a safe filename fragment from a title line.
func Slug(title string) string {
	s := unsafeRe.ReplaceAllString(title, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = collapseRe.ReplaceAllString(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// Ingest writes content into staging as <timestamp>-<slug>.md and returns
// the new file's root-relative path. Empty content is rejected.
func Ingest(store storage.Provider, paths workspace.Paths, logger *slog.Logger, content string, now time.Time) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("ingest: content is empty")
	}

	title := "untitled"
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			title = strings.TrimSpace(line)
			break
		}
	}
	slug := Slug(title)
	if slug == "" {
		slug = "note"
	}

	name := fmt.Sprintf("%s-%s.md", now.Format("20060102-150405"), slug)
	dest := path.Join(paths.Staging, name)
	if err := store.Write(dest, []byte(content)); err != nil {
		return "", fmt.Errorf("ingest: %w", err)
	}

	logger.Info("ingested to staging",
		slog.String("file", name),
		slog.Int("size", len(content)))
	return dest, nil
}
