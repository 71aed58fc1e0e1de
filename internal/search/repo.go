package search

import (
	"encoding/json"
	"fmt"
	"time"
)

// DocRow represents a row in the documents table.
type DocRow struct {
	Path      string
	Domain    string
	Stage     string
	Tags      []string
	Checksum  string
	UpdatedAt time.Time
}

// Result represents one search hit.
type Result struct {
	Path    string `json:"path"`
	Domain  string `json:"domain"`
	Stage   string `json:"stage"`
	Snippet string `json:"snippet"`
}

// Upsert inserts or replaces a document and its FTS entry within a
// transaction.
func (db *DB) Upsert(d DocRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(d.Tags)

	_, err = tx.Exec(`
		INSERT INTO documents (path, domain, stage, tags, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			domain     = excluded.domain,
			stage      = excluded.stage,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Path, d.Domain, d.Stage, string(tagsJSON), d.Checksum, body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("search: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Domain, body, d.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a document and its FTS entry.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// AllChecksums returns every indexed path with its stored checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("search: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Filter returns documents whose domain and tags contain the given
// substrings. Empty filters match everything.
func (db *DB) Filter(domain, tag string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT path, domain, stage, substr(body, 1, 200)
		FROM documents
		WHERE domain LIKE ? AND tags LIKE ?
		ORDER BY path
		LIMIT ?
	`, "%"+domain+"%", "%"+tag+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search: filter: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Path, &r.Domain, &r.Stage, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
