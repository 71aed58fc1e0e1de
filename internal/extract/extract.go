// Package extract derives snippets and heuristic classification suggestions
// from raw note content.
package extract

import (
	"strings"

	"github.com/starford/raido/internal/header"
)

// DefaultSnippetWords is the snippet length used by the manifest and index
// builders.
const DefaultSnippetWords = 75

// Snippet returns the first wordCount whitespace-delimited tokens of text,
// skipping any leading metadata header, joined by single spaces. A trailing
// ellipsis marks truncation.
func Snippet(text string, wordCount int) string {
	body := header.Strip([]byte(text))
	words := strings.Fields(body)
	if len(words) <= wordCount {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:wordCount], " ") + "..."
}

// Suggestion is a best-effort initial classification. The organizer never
// requires it to be correct, only present.
type Suggestion struct {
	Domain string
	Tags   string // semicolon-joined
	Stage  string
}

// Suggest scans content (case-insensitively) for classification keywords.
// Domain rules are evaluated in fixed order and the first match wins:
// code-related keywords take tradecraft, otherwise journaling keywords take
// forensic-psychology, otherwise the social-engineering default stands.
func Suggest(content, filename string) Suggestion {
	lower := strings.ToLower(content)

	s := Suggestion{
		Domain: "social-engineering",
		Stage:  "experientialdata",
	}

	if strings.Contains(lower, "doctrine") {
		s.Stage = "formalizedframework"
	}

	var tags []string
	switch {
	case strings.Contains(lower, "code"), strings.Contains(lower, "function"), strings.Contains(lower, "def "):
		s.Domain = "tradecraft"
		tags = append(tags, "code-snippet")
	case strings.Contains(lower, "journal"), strings.Contains(lower, "diary"), strings.Contains(lower, "felt"):
		s.Domain = "forensic-psychology"
		tags = append(tags, "reflection")
	}

	s.Tags = strings.Join(tags, ";")
	return s
}
