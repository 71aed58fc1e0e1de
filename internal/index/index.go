// Package index derives the regenerable markdown views over the organized
// archive and checks their link integrity. Indices are never a source of
// truth: they are safe to delete and regenerate at any time.
package index

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/extract"
	"github.com/starford/raido/internal/header"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// View describes one grouped index file.
type View struct {
	File  string
	Title string
	Key   string // header key used for grouping
}

// Views are the three derived index views, one per classification axis.
var Views = []View{
	{File: "index-domains.md", Title: "Index by Pattern Domain", Key: "patterndomain"},
	{File: "index-maturation.md", Title: "Index by Maturation Stage", Key: "maturationstage"},
	{File: "index-validation.md", Title: "Index by Validation Status", Key: "validationstatus"},
}

// uncategorized is the bucket for documents missing the grouping key.
const uncategorized = "Uncategorized"

// document is one archived file prepared for indexing.
type document struct {
	path    string // relative to the workspace root, slash-separated
	name    string // filename stem
	snippet string
	fields  header.Fields
}

// Generate rescans the archive tree and rewrites every index view. Files
// under the taxonomy directory are excluded from indexing.
func Generate(store storage.Provider, paths workspace.Paths, logger *slog.Logger) error {
	docs, err := scanArchive(store, paths, logger)
	if err != nil {
		return err
	}
	if err := store.MkdirAll(paths.Indexes); err != nil {
		return err
	}

	for _, v := range Views {
		content := renderView(v, docs, paths)
		out := path.Join(paths.Indexes, v.File)
		if err := store.Write(out, []byte(content)); err != nil {
			return fmt.Errorf("index: write %s: %w", v.File, err)
		}
		logger.Info("index generated", slog.String("file", out), slog.Int("documents", len(docs)))
	}
	return nil
}

// scanArchive reads every archived document's header and snippet. Unreadable
// files are logged and skipped, never fatal to the pass.
func scanArchive(store storage.Provider, paths workspace.Paths, logger *slog.Logger) ([]document, error) {
	metas, err := store.List(paths.Archive, ".md")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("index: %s: %w", paths.Archive, apperr.ErrMissingPrerequisite)
		}
		return nil, fmt.Errorf("index: scan archive: %w", err)
	}

	var docs []document
	for _, m := range metas {
		if underDir(m.Path, paths.Taxonomy) || strings.EqualFold(path.Base(m.Path), "readme.md") {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("index: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		fields, body := header.Parse(data)
		docs = append(docs, document{
			path:    m.Path,
			name:    strings.TrimSuffix(path.Base(m.Path), ".md"),
			snippet: extract.Snippet(body, extract.DefaultSnippetWords),
			fields:  fields,
		})
	}
	return docs, nil
}

func underDir(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// renderView groups documents by the view key and writes one section per
// distinct value, sorted by group name. Links are relative to the index
// file's own location.
func renderView(v View, docs []document, paths workspace.Paths) string {
	groups := make(map[string][]document)
	for _, d := range docs {
		val := uncategorized
		if d.fields != nil && d.fields[v.Key] != "" {
			val = d.fields[v.Key]
		}
		groups[val] = append(groups[val], d)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Title)
	for _, name := range names {
		fmt.Fprintf(&b, "## %s\n\n", name)
		items := groups[name]
		sort.Slice(items, func(i, j int) bool { return items[i].path < items[j].path })
		for _, d := range items {
			fmt.Fprintf(&b, "### [%s](%s)\n", d.name, relLink(paths, d.path))
			fmt.Fprintf(&b, "> %s\n\n", d.snippet)
			fmt.Fprintf(&b, "- **Domain:** `%s`\n", fieldOr(d.fields, "patterndomain", "N/A"))
			fmt.Fprintf(&b, "- **Stage:** `%s`\n\n", fieldOr(d.fields, "maturationstage", "N/A"))
		}
	}
	return b.String()
}

// relLink rewrites a root-relative document path so it resolves from inside
// the index directory.
func relLink(paths workspace.Paths, docPath string) string {
	up := strings.Repeat("../", strings.Count(paths.Indexes, "/")+1)
	return up + docPath
}

func fieldOr(f header.Fields, key, def string) string {
	if f == nil || f[key] == "" {
		return def
	}
	return f[key]
}
