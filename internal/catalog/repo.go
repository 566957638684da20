package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

const assetColumns = `path, name, checksum, scenes, nodes, materials, lod_levels, extensions, updated_at`

// UpsertAsset inserts or replaces an asset and its FTS entry within a
// transaction. names holds the node, mesh and material names to search on.
func (db *DB) UpsertAsset(a models.Asset, names string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if a.Extensions == nil {
		a.Extensions = []string{}
	}
	extJSON, _ := json.Marshal(a.Extensions)
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO assets (path, name, checksum, scenes, nodes, materials, lod_levels, extensions, names, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name       = excluded.name,
			checksum   = excluded.checksum,
			scenes     = excluded.scenes,
			nodes      = excluded.nodes,
			materials  = excluded.materials,
			lod_levels = excluded.lod_levels,
			extensions = excluded.extensions,
			names      = excluded.names,
			updated_at = excluded.updated_at
	`, a.Path, a.Name, a.Checksum, a.Scenes, a.Nodes, a.Materials, a.LODLevels, string(extJSON), names, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert asset: %w", err)
	}

	if err := ftsUpsert(tx, a.Path, a.Name, names, a.Extensions); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteAsset removes an asset and its FTS entry. Recorded merges are kept.
func (db *DB) DeleteAsset(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM assets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete asset: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for an asset, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM assets WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the stored checksum of every catalogued asset by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
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

// GetAsset returns one catalogued asset.
func (db *DB) GetAsset(path string) (*models.Asset, error) {
	row := db.conn.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE path = ?`, path)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: asset %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get asset: %w", err)
	}
	return a, nil
}

// ListAssets returns a page of assets ordered by path and the total count.
// lodOnly restricts the listing to assets that carry LOD levels.
func (db *DB) ListAssets(limit, offset int, lodOnly bool) ([]models.Asset, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := ""
	if lodOnly {
		where = ` WHERE lod_levels > 0`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM assets` + where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count assets: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+assetColumns+` FROM assets`+where+` ORDER BY path LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list assets: %w", err)
	}
	defer rows.Close()

	out := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (*models.Asset, error) {
	var (
		a       models.Asset
		extJSON string
	)
	if err := s.Scan(&a.Path, &a.Name, &a.Checksum, &a.Scenes, &a.Nodes, &a.Materials, &a.LODLevels, &extJSON, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(extJSON), &a.Extensions); err != nil {
		return nil, fmt.Errorf("catalog: decode extensions of %s: %w", a.Path, err)
	}
	return &a, nil
}
