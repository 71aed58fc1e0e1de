package taxonomy

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/workspace"
)

// DefaultDomains seeds a fresh workspace with a starting vocabulary.
var DefaultDomains = []models.TaxonomyEntry{
	{ID: "forensic-psychology", Description: "Analysis of psychological manipulation and coercive control."},
	{ID: "tradecraft", Description: "Operational tactics, techniques, and procedures."},
	{ID: "neurobiology", Description: "Biological and neurological impacts of psychological stress."},
	{ID: "social-engineering", Description: "Manipulation of social structures and human behavior."},
	{ID: "tactical-doctrine", Description: "Strategic principles of non-kinetic warfare and asymmetric engagement."},
}

// DefaultTags seeds a fresh workspace with a starting tag vocabulary.
var DefaultTags = []models.TaxonomyEntry{
	{ID: "humint", Description: "Human Intelligence"},
	{ID: "non-kinetic", Description: "Non-physical warfare tactics"},
	{ID: "gaslighting", Description: "Psychological manipulation to sow doubt"},
	{ID: "c-ptsd", Description: "Complex Post-Traumatic Stress Disorder"},
	{ID: "civilian-weaponization", Description: "Use of civilians as proxies in conflict"},
	{ID: "smear-campaign", Description: "Systematic reputation destruction"},
	{ID: "cognitive-collapse", Description: "Breakdown of cognitive function under stress"},
	{ID: "plausible-deniability", Description: "Ability to deny involvement in operations"},
	{ID: "code-snippet", Description: "Technical implementation details"},
	{ID: "reflection", Description: "Personal retrospective analysis"},
}

// EnsureStubs writes the default domains.json and tags.json unless they
// already exist. Existing vocabularies are never overwritten.
func EnsureStubs(store storage.Provider, paths workspace.Paths) error {
	if err := store.MkdirAll(paths.Taxonomy); err != nil {
		return err
	}
	files := map[string][]models.TaxonomyEntry{
		"domains.json": DefaultDomains,
		"tags.json":    DefaultTags,
	}
	for name, entries := range files {
		file := path.Join(paths.Taxonomy, name)
		if store.Exists(file) {
			continue
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("taxonomy: marshal %s: %w", name, err)
		}
		if err := store.Write(file, append(data, '\n')); err != nil {
			return fmt.Errorf("taxonomy: write stub: %w", err)
		}
	}
	return nil
}
