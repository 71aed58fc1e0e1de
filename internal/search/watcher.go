package search

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Watch starts an fsnotify watcher on the archive root and keeps the search
// index synced until ctx is cancelled. Organizer runs create whole
// domain/stage directories at runtime, so new directories are added to the
// watch list as they appear; removes and renames schedule a debounced
// reconciliation pass instead of being tracked event by event.
func Watch(ctx context.Context, db *DB, store storage.Provider, paths workspace.Paths, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	rootAbs, err := filepath.Abs(paths.Root)
	if err != nil {
		return err
	}
	archiveRoot := paths.ArchiveDir()
	if err := addDirsRecursive(w, archiveRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", archiveRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(db, store, paths, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// The new directory may already hold organized
					// documents; the reconcile pass picks them up.
					scheduleReconcile()
					continue
				}
			}

			rel, relErr := filepath.Rel(rootAbs, ev.Name)
			if relErr != nil {
				continue
			}
			relPath := filepath.ToSlash(rel)
			if !isIndexable(relPath) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(relPath)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", relPath), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexDocument(db, relPath, checksum.Sum(data), data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", relPath), slog.String("error", idxErr.Error()))
					continue
				}
				logger.Debug("watcher: indexed", slog.String("path", relPath))

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if delErr := db.Delete(relPath); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", relPath), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: deleted", slog.String("path", relPath))
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
