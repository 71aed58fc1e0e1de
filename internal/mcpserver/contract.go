package mcpserver

// HeaderFormatContract describes the canonical metadata header that every
// archived document carries. LLM consumers should read it before
// interpreting or generating archive content.
const HeaderFormatContract = `# Raido Document Header Contract

Every Markdown document in the archive starts with this metadata header.

## Structure

` + "```" + `markdown
---
patterndomain: social-engineering
maturationstage: experientialdata
patterntags: ["humint", "reflection"]
validationstatus: singleobservation
instructionalreadiness: internalreference
temporal_context:
  experience_date: 2025-01-15
  analysis_date: 2025-01-20
provenance: personaldocumentation
source: "notebooklm"
source_url: ""
related_links: []
import_date: 2025-01-20
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **The ` + "`" + `---` + "`" + ` fences must be the first thing in the file** (no leading
   blank lines). The closing fence is followed by one blank line, then the body.
2. **Field order is fixed** and matches the structure above exactly.
3. **` + "`" + `patterndomain` + "`" + `** is lowercase kebab-case (e.g. ` + "`" + `social-engineering` + "`" + `).
4. **` + "`" + `patterntags` + "`" + ` and ` + "`" + `related_links` + "`" + `** are JSON-style lists of
   double-quoted strings, ` + "`" + `[]` + "`" + ` when empty.
5. **Dates** are ISO-8601 (` + "`" + `YYYY-MM-DD` + "`" + `).
6. **Archive paths** follow ` + "`" + `archive/<domain>/<stage-folder>/<file>.md` + "`" + `
   where the stage folder is one of ` + "`" + `experiential_data` + "`" + `,
   ` + "`" + `analytical_synthesis` + "`" + `, ` + "`" + `formalized_frameworks` + "`" + `.
7. **Encoding** is UTF-8.
`
