// Package pipeline wires the migration components into the command surface
// shared by the CLI, the dashboard API, and the MCP server. Log lines are
// delivered through the supplied slog.Logger, so callers choose how output
// reaches them (terminal, SSE stream, ...).
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/raido/internal/export"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/ingest"
	"github.com/starford/raido/internal/manifest"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/organizer"
	"github.com/starford/raido/internal/report"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/taxonomy"
	"github.com/starford/raido/internal/workspace"
)

// IssuePreviewLimit caps how many validation issues are logged for human
// readability. The underlying checks are always exhaustive.
const IssuePreviewLimit = 10

// Pipeline executes migration commands against one workspace. Commands are
// single-threaded, one pass over the filesystem, and must not run
// concurrently against the same workspace.
type Pipeline struct {
	store  storage.Provider
	paths  workspace.Paths
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Pipeline. now may be nil, in which case time.Now is used.
func New(store storage.Provider, paths workspace.Paths, logger *slog.Logger, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{store: store, paths: paths, logger: logger, now: now}
}

// Init bootstraps the workspace: directory skeleton, taxonomy stubs, and a
// first manifest generated from whatever is already staged.
func (p *Pipeline) Init() error {
	for _, dir := range []string{p.paths.Staging, p.paths.Archive, p.paths.Taxonomy, p.paths.Indexes} {
		if err := p.store.MkdirAll(dir); err != nil {
			return err
		}
		p.logger.Info("verified directory", slog.String("dir", dir))
	}
	if err := taxonomy.EnsureStubs(p.store, p.paths); err != nil {
		return err
	}
	return p.Scan()
}

// Scan rebuilds the manifest from the staging tree. Staged files are never
// touched; the manifest file is created or overwritten.
func (p *Pipeline) Scan() error {
	records, err := manifest.Build(p.store, p.paths, p.logger, p.now())
	if err != nil {
		return err
	}
	if err := manifest.Write(p.store, p.paths, records); err != nil {
		return err
	}
	p.logger.Info("manifest generated",
		slog.String("file", p.paths.Manifest),
		slog.Int("entries", len(records)))
	return nil
}

// ValidateTaxonomy checks every manifest row against the controlled
// vocabulary and returns the full issue list.
func (p *Pipeline) ValidateTaxonomy() ([]string, error) {
	records, err := manifest.Load(p.store, p.paths)
	if err != nil {
		return nil, err
	}
	tax, err := taxonomy.Load(p.store, p.paths)
	if err != nil {
		return nil, err
	}
	issues := tax.Validate(records)
	p.logIssues("taxonomy validation", issues)
	return issues, nil
}

// ValidateLinks checks index link integrity and orphaned archive files.
func (p *Pipeline) ValidateLinks() ([]string, error) {
	issues, err := index.Validate(p.store, p.paths, p.logger)
	if err != nil {
		return nil, err
	}
	p.logIssues("link validation", issues)
	return issues, nil
}

// Organize runs the core reconciliation pass and, when regenIndexes is set,
// refreshes the derived views afterwards.
func (p *Pipeline) Organize(regenIndexes bool) (organizer.Result, error) {
	records, err := manifest.Load(p.store, p.paths)
	if err != nil {
		return organizer.Result{}, err
	}
	res := organizer.New(p.store, p.paths, p.logger, p.now).Run(records)
	if regenIndexes {
		if err := p.Index(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Index regenerates every derived index view.
func (p *Pipeline) Index() error {
	return index.Generate(p.store, p.paths, p.logger)
}

// Report computes archive statistics.
func (p *Pipeline) Report(withTags bool) (*models.Stats, error) {
	return report.Build(p.store, p.paths, p.logger, withTags)
}

// ExportJSON writes the JSON bundle to the default location.
func (p *Pipeline) ExportJSON() error {
	return export.WriteBundle(p.store, p.paths, p.logger, export.DefaultBundleFile)
}

// ExportZip writes the ZIP container to the default location.
func (p *Pipeline) ExportZip() error {
	return export.WriteZip(p.store, p.paths, p.logger, export.DefaultZipFile)
}

// VerifyBundle checks the previously exported JSON bundle.
func (p *Pipeline) VerifyBundle() ([]string, error) {
	issues, err := export.Verify(p.store, p.paths, export.DefaultBundleFile)
	if err != nil {
		return nil, err
	}
	p.logIssues("bundle verification", issues)
	return issues, nil
}

// Ingest writes raw text into staging.
func (p *Pipeline) Ingest(content string) (string, error) {
	return ingest.Ingest(p.store, p.paths, p.logger, content, p.now())
}

// Cleanup removes the staging tree. When unprocessed files remain it
// refuses unless force is set.
func (p *Pipeline) Cleanup(force bool) error {
	metas, err := p.store.List(p.paths.Staging)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.logger.Info("staging directory does not exist, nothing to clean")
			return nil
		}
		return err
	}
	if len(metas) > 0 && !force {
		for i, m := range metas {
			if i >= 5 {
				p.logger.Warn("...")
				break
			}
			p.logger.Warn("unprocessed file", slog.String("path", m.Path))
		}
		return fmt.Errorf("staging contains %d files; re-run with --force to delete them", len(metas))
	}
	if err := p.store.RemoveTree(p.paths.Staging); err != nil {
		return err
	}
	p.logger.Info("staging area removed", slog.String("dir", p.paths.Staging))
	return nil
}

func (p *Pipeline) logIssues(what string, issues []string) {
	if len(issues) == 0 {
		p.logger.Info(what+" passed", slog.Int("issues", 0))
		return
	}
	p.logger.Warn(what+" found issues", slog.Int("issues", len(issues)))
	for i, issue := range issues {
		if i >= IssuePreviewLimit {
			p.logger.Warn(fmt.Sprintf("... and %d more", len(issues)-IssuePreviewLimit))
			break
		}
		p.logger.Warn(issue)
	}
}
