package index

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

var mdLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)]+)\)`)

// Validate checks link integrity: every markdown link in every index file
// must resolve (relative to the index file's location) to an existing file,
// and every archived document must be referenced by at least one index.
// Read-only; it reports, never repairs.
func Validate(store storage.Provider, paths workspace.Paths, logger *slog.Logger) ([]string, error) {
	indexFiles, err := store.List(paths.Indexes, ".md")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("index: %s: %w", paths.Indexes, apperr.ErrMissingPrerequisite)
		}
		return nil, fmt.Errorf("index: list indexes: %w", err)
	}

	var issues []string
	referenced := make(map[string]struct{})

	for _, idx := range indexFiles {
		data, err := store.Read(idx.Path)
		if err != nil {
			issues = append(issues, fmt.Sprintf("could not read %s: %v", idx.Path, err))
			continue
		}
		logger.Debug("validating index", slog.String("file", idx.Path))

		base := path.Dir(idx.Path)
		for _, m := range mdLinkRe.FindAllStringSubmatch(string(data), -1) {
			link := m[1]
			target := path.Clean(path.Join(base, link))
			if !store.Exists(target) {
				issues = append(issues, fmt.Sprintf("broken link in %s: %s", path.Base(idx.Path), link))
				continue
			}
			referenced[target] = struct{}{}
		}
	}

	// Archived files never referenced by any index are orphans.
	archived, err := store.List(paths.Archive, ".md")
	if err != nil {
		return nil, fmt.Errorf("index: scan archive: %w", err)
	}
	for _, m := range archived {
		if underDir(m.Path, paths.Taxonomy) || strings.EqualFold(path.Base(m.Path), "readme.md") {
			continue
		}
		if _, ok := referenced[m.Path]; !ok {
			issues = append(issues, fmt.Sprintf("orphaned file not referenced by any index: %s", m.Path))
		}
	}

	return issues, nil
}
