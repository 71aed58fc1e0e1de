// Package models defines the domain types for raido.
package models

import (
	"strings"
	"time"
)

// ManifestRecord is one row of the classification manifest: the work-list
// entry mediating between a staged file and its target classification.
type ManifestRecord struct {
	OriginalPath           string // relative to the workspace root
	Filename               string
	SuggestedDomain        string
	SuggestedTags          string // semicolon-delimited
	MaturationStage        string
	ValidationStatus       string
	InstructionalReadiness string
	ExperienceDate         string
	Provenance             string
	SourceURL              string
	RelatedLinks           string // semicolon-delimited
	Snippet                string
	Status                 string
}

// Tags returns the tag list parsed from the semicolon-delimited field.
func (r ManifestRecord) Tags() []string { return SplitList(r.SuggestedTags) }

// Links returns the related-links list parsed from the delimited field.
func (r ManifestRecord) Links() []string { return SplitList(r.RelatedLinks) }

// SplitList splits a semicolon-delimited field, trimming whitespace and
// dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// TaxonomyEntry is one controlled-vocabulary item for a domain or tag.
type TaxonomyEntry struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// Stats holds the aggregate counts produced by the report builder.
type Stats struct {
	TotalFiles int            `json:"total_files"`
	Domains    map[string]int `json:"domains"`
	Stages     map[string]int `json:"stages"`
	Tags       map[string]int `json:"tags"`
}
