// Package manifest builds, writes, and re-reads the classification
// manifest: the CSV work list mediating between staged files and their
// target classification.
package manifest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/extract"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Columns is the fixed header row. Column order is significant: consumers
// re-open the same file and the manifest must survive hand-editing between
// generation and organization.
var Columns = []string{
	"original_path",
	"filename",
	"suggested_domain",
	"suggested_tags",
	"maturation_stage",
	"validation_status",
	"instructional_readiness",
	"experience_date",
	"provenance",
	"source_url",
	"related_links",
	"snippet",
	"status",
}

// Extensions selected when scanning the staging tree.
var stagingExts = []string{".md", ".txt"}

// Build scans the staging tree and produces one record per candidate file.
// A file that cannot be read is logged and skipped, never fatal to the
// batch. Undecodable bytes are replaced, not fatal.
func Build(store storage.Provider, paths workspace.Paths, logger *slog.Logger, today time.Time) ([]models.ManifestRecord, error) {
	metas, err := store.List(paths.Staging, stagingExts...)
	if err != nil {
		return nil, fmt.Errorf("manifest: scan staging: %w", err)
	}

	date := today.Format("2006-01-02")
	var records []models.ManifestRecord
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("manifest: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		content := strings.ToValidUTF8(string(data), "�")

		name := m.Path
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		sug := extract.Suggest(content, name)

		records = append(records, models.ManifestRecord{
			OriginalPath:           m.Path,
			Filename:               name,
			SuggestedDomain:        sug.Domain,
			SuggestedTags:          sug.Tags,
			MaturationStage:        sug.Stage,
			ValidationStatus:       "singleobservation",
			InstructionalReadiness: "internalreference",
			ExperienceDate:         date,
			Provenance:             "personaldocumentation",
			SourceURL:              "",
			RelatedLinks:           "",
			Snippet:                extract.Snippet(content, extract.DefaultSnippetWords),
			Status:                 "pending",
		})
	}
	return records, nil
}

// Write serializes records to the manifest file, creating or overwriting it.
func Write(store storage.Provider, paths workspace.Paths, records []models.ManifestRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("manifest: write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(toRow(r)); err != nil {
			return fmt.Errorf("manifest: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("manifest: flush: %w", err)
	}
	if err := store.Write(paths.Manifest, buf.Bytes()); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// Load re-reads the manifest fresh from disk. A missing manifest is a
// missing prerequisite, not a per-record defect.
func Load(store storage.Provider, paths workspace.Paths) ([]models.ManifestRecord, error) {
	data, err := store.Read(paths.Manifest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("manifest: %s: %w", paths.Manifest, apperr.ErrMissingPrerequisite)
		}
		return nil, fmt.Errorf("manifest: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // tolerate hand-edited rows
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Map columns by the header row so a reordered hand-edited file still
	// loads correctly.
	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []models.ManifestRecord
	for _, row := range rows[1:] {
		records = append(records, models.ManifestRecord{
			OriginalPath:           field(row, "original_path"),
			Filename:               field(row, "filename"),
			SuggestedDomain:        field(row, "suggested_domain"),
			SuggestedTags:          field(row, "suggested_tags"),
			MaturationStage:        field(row, "maturation_stage"),
			ValidationStatus:       field(row, "validation_status"),
			InstructionalReadiness: field(row, "instructional_readiness"),
			ExperienceDate:         field(row, "experience_date"),
			Provenance:             field(row, "provenance"),
			SourceURL:              field(row, "source_url"),
			RelatedLinks:           field(row, "related_links"),
			Snippet:                field(row, "snippet"),
			Status:                 field(row, "status"),
		})
	}
	return records, nil
}

func toRow(r models.ManifestRecord) []string {
	return []string{
		r.OriginalPath,
		r.Filename,
		r.SuggestedDomain,
		r.SuggestedTags,
		r.MaturationStage,
		r.ValidationStatus,
		r.InstructionalReadiness,
		r.ExperienceDate,
		r.Provenance,
		r.SourceURL,
		r.RelatedLinks,
		r.Snippet,
		r.Status,
	}
}
