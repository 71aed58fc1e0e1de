// Package workspace defines the canonical directory layout of a raido
// workspace. Every component receives an explicit Paths value instead of
// consulting package-level path constants, so tests can run against
// temporary directories.
package workspace

import "path/filepath"

// Paths holds every location the pipeline touches, relative to Root.
type Paths struct {
	Root     string
	Staging  string // holding area for unclassified raw notes
	Archive  string // organized domain/stage tree
	Taxonomy string // controlled vocabulary (domains.json, tags.json)
	Manifest string // tabular work list (CSV)
	Indexes  string // regenerable markdown index views
}

// Defaults returns the canonical layout rooted at root.
func Defaults(root string) Paths {
	return Paths{
		Root:     root,
		Staging:  "staging",
		Archive:  "archive",
		Taxonomy: "taxonomy",
		Manifest: "manifests/classification-manifest.csv",
		Indexes:  "_indexes",
	}
}

// StagingDir returns the absolute staging directory.
func (p Paths) StagingDir() string { return filepath.Join(p.Root, p.Staging) }

// ArchiveDir returns the absolute archive directory.
func (p Paths) ArchiveDir() string { return filepath.Join(p.Root, p.Archive) }

// TaxonomyDir returns the absolute taxonomy directory.
func (p Paths) TaxonomyDir() string { return filepath.Join(p.Root, p.Taxonomy) }

// ManifestFile returns the absolute manifest path.
func (p Paths) ManifestFile() string { return filepath.Join(p.Root, p.Manifest) }

// IndexDir returns the absolute index directory.
func (p Paths) IndexDir() string { return filepath.Join(p.Root, p.Indexes) }
