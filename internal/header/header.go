// Package header implements the metadata header codec shared by the
// organizer, index builder, report builder, and export verifier.
//
// The grammar is deliberately simpler than YAML: an ordered sequence of
// "key: value" lines between two "---" fence lines at the very start of a
// document, with exactly one nested block (temporal_context) whose children
// are indented by two spaces, and list-valued fields rendered as JSON string
// arrays. Consumers parse it by splitting each line on the first colon, so
// the serializer must reproduce the layout bit-for-bit — existing archives
// depend on it.
package header

import (
	"encoding/json"
	"strings"
)

const delim = "---"

// Meta is the parsed (or to-be-rendered) header of an archived document.
type Meta struct {
	PatternDomain          string
	MaturationStage        string
	PatternTags            []string
	ValidationStatus       string
	InstructionalReadiness string
	ExperienceDate         string
	AnalysisDate           string
	Provenance             string
	Source                 string
	SourceURL              string
	RelatedLinks           []string
	ImportDate             string
}

// Render serializes the header block, including both fences and the blank
// line that separates the header from the body.
func (m Meta) Render() string {
	var b strings.Builder
	b.WriteString(delim + "\n")
	writeField(&b, "patterndomain", m.PatternDomain)
	writeField(&b, "maturationstage", m.MaturationStage)
	writeField(&b, "patterntags", renderList(m.PatternTags))
	writeField(&b, "validationstatus", m.ValidationStatus)
	writeField(&b, "instructionalreadiness", m.InstructionalReadiness)
	b.WriteString("temporal_context:\n")
	b.WriteString("  experience_date: " + m.ExperienceDate + "\n")
	b.WriteString("  analysis_date: " + m.AnalysisDate + "\n")
	writeField(&b, "provenance", m.Provenance)
	writeField(&b, "source", quote(m.Source))
	writeField(&b, "source_url", quote(m.SourceURL))
	writeField(&b, "related_links", renderList(m.RelatedLinks))
	writeField(&b, "import_date", m.ImportDate)
	b.WriteString(delim + "\n\n")
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key + ": " + value + "\n")
}

func quote(s string) string {
	return `"` + s + `"`
}

// renderList produces a JSON-style string array with ", " separators,
// e.g. ["humint", "code-snippet"]. An empty or nil list renders as [].
func renderList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	parts := make([]string, len(items))
	for i, item := range items {
		enc, _ := json.Marshal(item)
		parts[i] = string(enc)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Fields is the raw key→value view of a header, flattened: children of the
// nested temporal_context block appear under their own keys.
type Fields map[string]string

// List parses a field value as a JSON string array. An empty list ([])
// parses to an empty non-nil slice; non-list or malformed values return nil.
func (f Fields) List(key string) []string {
	v, ok := f[key]
	if !ok || !strings.HasPrefix(v, "[") {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil
	}
	return out
}

// Parse splits data into header fields and body. A document without a
// leading fence (or without a closing fence) has nil fields and the whole
// content as body. Scalar values keep their text with surrounding double
// quotes removed; list values keep their bracketed form for Fields.List.
func Parse(data []byte) (Fields, string) {
	raw, body, ok := split(string(data))
	if !ok {
		return nil, string(data)
	}
	fields := make(Fields)
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// Nested block children are flattened by their own key.
		trimmed := strings.TrimLeft(line, " ")
		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue // block introducer line, e.g. "temporal_context:"
		}
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}
		fields[strings.TrimSpace(key)] = value
	}
	if len(fields) == 0 {
		fields = nil
	}
	return fields, body
}

// Strip removes a leading header block and returns the body. Content that
// does not start with a fence is returned unchanged, so headers never nest.
func Strip(data []byte) string {
	_, body := Parse(data)
	return body
}

// split separates the raw header text from the body. The opening fence must
// be the very first line of the document, and the closing fence must be a
// line of exactly "---": a longer dash run or trailing text makes the line
// ordinary content.
func split(content string) (raw, body string, ok bool) {
	if !strings.HasPrefix(content, delim+"\n") {
		return "", content, false
	}
	rest := content[len(delim)+1:]
	if idx := strings.Index(rest, "\n"+delim+"\n"); idx >= 0 {
		raw = rest[:idx]
		body = rest[idx+len(delim)+2:]
	} else if strings.HasSuffix(rest, "\n"+delim) {
		// Closing fence ends the file without a trailing newline.
		raw = rest[:len(rest)-len(delim)-1]
		body = ""
	} else {
		return "", content, false
	}
	// Swallow the blank line separating header from body.
	body = strings.TrimPrefix(body, "\n")
	return raw, body, true
}
