// Package organizer implements the manifest-driven reconciliation pass:
// every classified record is relocated from staging into the canonical
// <archive>/<domain>/<stage> hierarchy, renamed deterministically, and given
// a fresh metadata header, while unclassified or missing-source records are
// reported and left untouched.
package organizer

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// stageFolders maps normalized maturation-stage labels onto folder names.
// Anything unrecognized falls back to experiential_data.
var stageFolders = map[string]string{
	"experientialdata":    "experiential_data",
	"analyticalsynthesis": "analytical_synthesis",
	"formalizedframework": "formalized_frameworks",
}

const defaultStageFolder = "experiential_data"

// Result reports the outcome of one organization pass.
type Result struct {
	Moved   int
	Skipped int
	Failed  int
}

// Organizer performs the §-by-§ state transition over manifest records.
type Organizer struct {
	store  storage.Provider
	paths  workspace.Paths
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Organizer. now may be nil, in which case time.Now is used.
func New(store storage.Provider, paths workspace.Paths, logger *slog.Logger, now func() time.Time) *Organizer {
	if now == nil {
		now = time.Now
	}
	return &Organizer{store: store, paths: paths, logger: logger, now: now}
}

// Run processes every record. One bad record never aborts the batch:
// per-record failures are logged and counted. Re-running against the same
// manifest is safe in the degraded sense — already-moved sources are simply
// reported as missing and skipped.
func (o *Organizer) Run(records []models.ManifestRecord) Result {
	var res Result
	date := o.now().Format("2006-01-02")

	for _, rec := range records {
		switch o.organize(rec, date) {
		case outcomeMoved:
			res.Moved++
		case outcomeSkipped:
			res.Skipped++
		case outcomeFailed:
			res.Failed++
		}
	}

	o.logger.Info("organization complete",
		slog.Int("moved", res.Moved),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))
	return res
}

type outcome int

const (
	outcomeMoved outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (o *Organizer) organize(rec models.ManifestRecord, date string) outcome {
	if rec.SuggestedDomain == "" {
		// Not yet classified by a human; not an error.
		o.logger.Debug("skipping unclassified record", slog.String("file", rec.Filename))
		return outcomeSkipped
	}
	if !o.store.Exists(rec.OriginalPath) {
		o.logger.Warn("skipping missing source", slog.String("path", rec.OriginalPath))
		return outcomeSkipped
	}

	domain := NormalizeDomain(rec.SuggestedDomain)
	stageFolder := StageFolder(rec.MaturationStage)

	destDir := path.Join(o.paths.Archive, domain, stageFolder)
	if err := o.store.MkdirAll(destDir); err != nil {
		o.logger.Warn("create destination failed", slog.String("dir", destDir), slog.String("error", err.Error()))
		return outcomeFailed
	}

	base := domain + "-" + Slug(rec.Filename) + "-" + date
	destPath := path.Join(destDir, base+".md")
	// Same-named sources from different staging folders slug to the same
	// destination; suffix instead of overwriting.
	for n := 2; o.store.Exists(destPath); n++ {
		destPath = path.Join(destDir, fmt.Sprintf("%s-%d.md", base, n))
	}

	data, err := o.store.Read(rec.OriginalPath)
	if err != nil {
		o.logger.Warn("read source failed", slog.String("path", rec.OriginalPath), slog.String("error", err.Error()))
		return outcomeFailed
	}
	body := header.Strip(data)

	meta := header.Meta{
		PatternDomain:          domain,
		MaturationStage:        rec.MaturationStage,
		PatternTags:            rec.Tags(),
		ValidationStatus:       orDefault(rec.ValidationStatus, "singleobservation"),
		InstructionalReadiness: orDefault(rec.InstructionalReadiness, "internalreference"),
		ExperienceDate:         orDefault(rec.ExperienceDate, date),
		AnalysisDate:           date,
		Provenance:             orDefault(rec.Provenance, "personaldocumentation"),
		Source:                 "notebooklm",
		SourceURL:              rec.SourceURL,
		RelatedLinks:           rec.Links(),
		ImportDate:             date,
	}

	if err := o.store.Write(destPath, []byte(meta.Render()+body)); err != nil {
		o.logger.Warn("write destination failed", slog.String("path", destPath), slog.String("error", err.Error()))
		return outcomeFailed
	}
	if err := o.store.Delete(rec.OriginalPath); err != nil {
		o.logger.Warn("remove source failed", slog.String("path", rec.OriginalPath), slog.String("error", err.Error()))
		return outcomeFailed
	}

	o.logger.Info("moved", slog.String("from", rec.OriginalPath), slog.String("to", destPath))
	return outcomeMoved
}

// NormalizeDomain lowercases a domain label and replaces interior spaces
// with hyphens.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.ReplaceAll(d, " ", "-")
}

// StageFolder maps a free-form maturation-stage label onto its archive
// folder: lowercase, strip spaces and hyphens, then look up the fixed table.
func StageFolder(stage string) string {
	key := strings.ToLower(stage)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "-", "")
	if folder, ok := stageFolders[key]; ok {
		return folder
	}
	return defaultStageFolder
}

// Slug derives the destination-name fragment from an original filename:
// lowercased, extension dropped, spaces hyphenated, everything outside
// [a-z0-9-] stripped.
func Slug(filename string) string {
	s := strings.ToLower(filename)
	s = strings.TrimSuffix(s, ".md")
	s = strings.TrimSuffix(s, ".txt")
	s = strings.ReplaceAll(s, " ", "-")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}