package search

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Sync walks the archive and brings the search index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, paths workspace.Paths, logger *slog.Logger) error {
	metas, err := store.List(paths.Archive, ".md")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if underDir(m.Path, paths.Taxonomy) || !isIndexable(m.Path) {
			continue
		}
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexDocument(db, m.Path, m.Checksum, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.Delete(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexDocument parses a document's header and upserts it into the DB.
func indexDocument(db *DB, docPath, checksum string, data []byte) error {
	fields, body := header.Parse(data)
	row := DocRow{
		Path:      docPath,
		Domain:    fields["patterndomain"],
		Stage:     fields["maturationstage"],
		Tags:      fields.List("patterntags"),
		Checksum:  checksum,
		UpdatedAt: time.Now(),
	}
	return db.Upsert(row, body)
}

func underDir(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// isIndexable reports whether a path looks like an archived document.
func isIndexable(p string) bool {
	return strings.HasSuffix(p, ".md") && !strings.EqualFold(path.Base(p), "readme.md")
}
