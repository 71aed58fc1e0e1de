// Package taxonomy loads the controlled vocabulary of valid domains and
// tags and validates manifest records against it.
package taxonomy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// Taxonomy holds the valid-domain and valid-tag id sets. It is consulted
// only, never mutated, by the pipeline.
type Taxonomy struct {
	Domains map[string]struct{}
	Tags    map[string]struct{}
}

// Load reads domains.json and tags.json from the taxonomy directory. Each
// file may be a JSON array of bare string ids or of {id, description}
// objects; both shapes are accepted.
func Load(store storage.Provider, paths workspace.Paths) (*Taxonomy, error) {
	domains, err := loadSet(store, path.Join(paths.Taxonomy, "domains.json"))
	if err != nil {
		return nil, err
	}
	tags, err := loadSet(store, path.Join(paths.Taxonomy, "tags.json"))
	if err != nil {
		return nil, err
	}
	return &Taxonomy{Domains: domains, Tags: tags}, nil
}

func loadSet(store storage.Provider, file string) (map[string]struct{}, error) {
	data, err := store.Read(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("taxonomy: %s: %w", file, apperr.ErrMissingPrerequisite)
		}
		return nil, fmt.Errorf("taxonomy: %w", err)
	}

	out := make(map[string]struct{})

	// Object shape first; fall back to bare strings.
	var entries []models.TaxonomyEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		for _, e := range entries {
			if e.ID != "" {
				out[e.ID] = struct{}{}
			}
		}
		return out, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("taxonomy: parse %s: %w", file, err)
	}
	for _, id := range ids {
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// SortedDomains returns the valid domain ids in sorted order.
func (t *Taxonomy) SortedDomains() []string { return sortedKeys(t.Domains) }

// SortedTags returns the valid tag ids in sorted order.
func (t *Taxonomy) SortedTags() []string { return sortedKeys(t.Tags) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks every record's domain and tags against the vocabulary and
// returns one issue string per violation. The check is exhaustive; callers
// may cap what they display, never what is scanned. Pure: neither the
// manifest nor the taxonomy is mutated.
func (t *Taxonomy) Validate(records []models.ManifestRecord) []string {
	var issues []string
	for _, r := range records {
		if d := r.SuggestedDomain; d != "" {
			if _, ok := t.Domains[d]; !ok {
				issues = append(issues, fmt.Sprintf(
					"file %q: invalid domain %q, expected one of %v", r.Filename, d, t.SortedDomains()))
			}
		}
		for _, tag := range r.Tags() {
			if _, ok := t.Tags[tag]; !ok {
				issues = append(issues, fmt.Sprintf(
					"file %q: invalid tag %q, expected one of %v", r.Filename, tag, t.SortedTags()))
			}
		}
	}
	return issues
}
