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

const mergeColumns = `id, output, inputs, screen_coverage, lod_levels, checksum, created_at`

// RecordMerge stores a completed merge and returns its id.
func (db *DB) RecordMerge(m models.Merge) (int64, error) {
	inputs, _ := json.Marshal(nonNil(m.Inputs))
	coverage, _ := json.Marshal(nonNil(m.ScreenCoverage))
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := db.conn.Exec(`
		INSERT INTO merges (output, inputs, screen_coverage, lod_levels, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.Output, string(inputs), string(coverage), m.LODLevels, m.Checksum, m.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("catalog: record merge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: record merge id: %w", err)
	}
	return id, nil
}

// GetMerge returns one recorded merge.
func (db *DB) GetMerge(id int64) (*models.Merge, error) {
	m, err := scanMerge(db.conn.QueryRow(`SELECT `+mergeColumns+` FROM merges WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: merge %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get merge: %w", err)
	}
	return m, nil
}

// ListMerges returns a page of merges, newest first, and the total count.
func (db *DB) ListMerges(limit, offset int) ([]models.Merge, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM merges`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count merges: %w", err)
	}
	rows, err := db.conn.Query(`SELECT `+mergeColumns+` FROM merges ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list merges: %w", err)
	}
	defer rows.Close()

	out := []models.Merge{}
	for rows.Next() {
		m, err := scanMerge(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

func scanMerge(s scanner) (*models.Merge, error) {
	var (
		m                models.Merge
		inputs, coverage string
	)
	if err := s.Scan(&m.ID, &m.Output, &inputs, &coverage, &m.LODLevels, &m.Checksum, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inputs), &m.Inputs); err != nil {
		return nil, fmt.Errorf("catalog: decode merge inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(coverage), &m.ScreenCoverage); err != nil {
		return nil, fmt.Errorf("catalog: decode merge coverage: %w", err)
	}
	if len(m.ScreenCoverage) == 0 {
		m.ScreenCoverage = nil
	}
	return &m, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
