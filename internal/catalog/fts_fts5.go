//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS assets_fts USING fts5(
			path UNINDEXED,
			name,
			names,
			extensions,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, name, names string, extensions []string) error {
	_, _ = tx.Exec(`DELETE FROM assets_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO assets_fts (path, name, names, extensions) VALUES (?, ?, ?, ?)`,
		path, name, names, strings.Join(extensions, " "))
	if err != nil {
		return fmt.Errorf("catalog: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM assets_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search and returns matching assets with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       name,
		       snippet(assets_fts, 2, '<b>', '</b>', '...', 32)
		FROM assets_fts
		WHERE assets_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
