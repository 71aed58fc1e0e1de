// Package export serializes the archive tree plus derived indices into a
// JSON bundle or a ZIP container, and verifies bundle integrity.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Default output locations, relative to the workspace root.
const (
	DefaultBundleFile = "knowledge_bundle.json"
	DefaultZipFile    = "knowledge_archive.zip"
)

// Bundle is the single structured document holding the whole archive.
type Bundle struct {
	Meta  BundleMeta    `json:"meta"`
	Files []BundleEntry `json:"files"`
}

// BundleMeta records export provenance.
type BundleMeta struct {
	ExportDate string `json:"export_date"`
	Version    string `json:"version"`
}

// BundleEntry is one archived or index file with its parsed metadata.
type BundleEntry struct {
	Filename string         `json:"filename"`
	Path     string         `json:"path"`
	Metadata map[string]any `json:"metadata"`
	Content  string         `json:"content"`
}

// WriteBundle serializes every markdown file under the archive and index
// directories into a JSON bundle at out. Unreadable files are logged and
// skipped.
func WriteBundle(store storage.Provider, paths workspace.Paths, logger *slog.Logger, out string) error {
	bundle := Bundle{
		Meta: BundleMeta{
			ExportDate: time.Now().Format(time.RFC3339),
			Version:    "1.0",
		},
		Files: []BundleEntry{},
	}

	for _, dir := range []string{paths.Archive, paths.Indexes} {
		metas, err := store.List(dir, ".md")
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				if dir == paths.Archive {
					return fmt.Errorf("export: %s: %w", dir, apperr.ErrMissingPrerequisite)
				}
				continue // indices are optional
			}
			return fmt.Errorf("export: scan %s: %w", dir, err)
		}
		for _, m := range metas {
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("export: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			fields, body := header.Parse(data)
			bundle.Files = append(bundle.Files, BundleEntry{
				Filename: path.Base(m.Path),
				Path:     m.Path,
				Metadata: metadataMap(fields),
				Content:  body,
			})
		}
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal bundle: %w", err)
	}
	if err := store.Write(out, append(data, '\n')); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("bundle written", slog.String("file", out), slog.Int("files", len(bundle.Files)))
	return nil
}

// metadataMap converts parsed header fields into a JSON-friendly map,
// decoding list-valued fields into string slices.
func metadataMap(fields header.Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if list := fields.List(k); list != nil {
			out[k] = list
			continue
		}
		out[k] = v
	}
	return out
}

// WriteZip bundles the archive and index directories into a compressed
// container at out.
func WriteZip(store storage.Provider, paths workspace.Paths, logger *slog.Logger, out string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	count := 0
	for _, dir := range []string{paths.Archive, paths.Indexes} {
		metas, err := store.List(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				if dir == paths.Archive {
					return fmt.Errorf("export: %s: %w", dir, apperr.ErrMissingPrerequisite)
				}
				continue
			}
			return fmt.Errorf("export: scan %s: %w", dir, err)
		}
		for _, m := range metas {
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("export: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			f, err := zw.Create(m.Path)
			if err != nil {
				return fmt.Errorf("export: zip entry %s: %w", m.Path, err)
			}
			if _, err := f.Write(data); err != nil {
				return fmt.Errorf("export: zip write %s: %w", m.Path, err)
			}
			count++
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: close zip: %w", err)
	}
	if err := store.Write(out, buf.Bytes()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("zip written", slog.String("file", out), slog.Int("files", count))
	return nil
}

// Verify checks a previously written bundle: every archive entry must carry
// the required header keys and a list-typed patterntags field. Index files
// carry no header and are exempt.
func Verify(store storage.Provider, paths workspace.Paths, bundleFile string) ([]string, error) {
	data, err := store.Read(bundleFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("export: %s: %w", bundleFile, apperr.ErrMissingPrerequisite)
		}
		return nil, fmt.Errorf("export: %w", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("export: parse bundle: %w", err)
	}

	var issues []string
	for _, entry := range bundle.Files {
		if !underDir(entry.Path, paths.Archive) {
			continue
		}
		if isEmpty(entry.Metadata["patterndomain"]) {
			issues = append(issues, fmt.Sprintf("%s: missing patterndomain", entry.Filename))
		}
		if isEmpty(entry.Metadata["maturationstage"]) {
			issues = append(issues, fmt.Sprintf("%s: missing maturationstage", entry.Filename))
		}
		if tags, ok := entry.Metadata["patterntags"]; ok {
			if _, isList := tags.([]any); !isList {
				if _, isStrList := tags.([]string); !isStrList {
					issues = append(issues, fmt.Sprintf("%s: patterntags is not a list", entry.Filename))
				}
			}
		}
	}
	return issues, nil
}

func isEmpty(v any) bool {
	s, ok := v.(string)
	return v == nil || (ok && s == "")
}

func underDir(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}
