// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// ConsolidateScene recounts the scene's member cells live and upserts
// the scene row wholesale: summary, embedding, count, and updated_at all
// replace previous values in one transaction.
func (m *MemoryStore) ConsolidateScene(ctx context.Context, scene, summary string, summaryEmbedding []float32) error {
	if strings.TrimSpace(scene) == "" {
		return ocerr.New(ocerr.CodeStoreInvalidInput, "scene name must not be empty")
	}

	blob, err := encodeVector(summaryEmbedding)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "beginning scene consolidation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mem_cells WHERE scene = ?`, scene,
	).Scan(&count); err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "counting scene cells: %w", err)
	}

	const q = `INSERT INTO mem_scenes (scene, summary, summary_embedding, cell_count, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(scene) DO UPDATE SET
	summary           = excluded.summary,
	summary_embedding = excluded.summary_embedding,
	cell_count        = excluded.cell_count,
	updated_at        = excluded.updated_at`

	if _, err := tx.ExecContext(ctx, q, scene, summary, blob, count, formatTime(time.Now())); err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "upserting scene %q: %w", scene, err)
	}

	return tx.Commit()
}

// ListScenes returns all consolidated scenes, most recently updated first.
func (m *MemoryStore) ListScenes(ctx context.Context) ([]*store.Scene, error) {
	const q = `SELECT scene, summary, cell_count, updated_at FROM mem_scenes ORDER BY updated_at DESC`

	rows, err := m.db.QueryContext(ctx, q)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "listing scenes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scenes []*store.Scene
	for rows.Next() {
		var s store.Scene
		var updatedAt string
		if err := rows.Scan(&s.Scene, &s.Summary, &s.CellCount, &updatedAt); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning scene row: %w", err)
		}
		s.UpdatedAt = parseTime(updatedAt)
		scenes = append(scenes, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating scene rows: %w", err)
	}
	return scenes, nil
}

// GetScene returns the scene row (nil if the scene was never
// consolidated) and the member cells ordered by descending salience,
// derived live from the cell table. A scene with no cells and no row
// yields (nil, nil, nil).
func (m *MemoryStore) GetScene(ctx context.Context, scene string) (*store.Scene, []*store.Cell, error) {
	var meta *store.Scene
	var updatedAt string
	s := store.Scene{}
	err := m.db.QueryRowContext(ctx,
		`SELECT scene, summary, cell_count, updated_at FROM mem_scenes WHERE scene = ?`, scene,
	).Scan(&s.Scene, &s.Summary, &s.CellCount, &updatedAt)
	switch {
	case err == sql.ErrNoRows:
		// Never consolidated; cells may still exist.
	case err != nil:
		return nil, nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "loading scene %q: %w", scene, err)
	default:
		s.UpdatedAt = parseTime(updatedAt)
		meta = &s
	}

	const q = `SELECT id, scene, cell_type, salience, content, source, tags, access_count, created_at, updated_at
FROM mem_cells WHERE scene = ? ORDER BY salience DESC`

	rows, err := m.db.QueryContext(ctx, q, scene)
	if err != nil {
		return nil, nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "listing cells for scene %q: %w", scene, err)
	}
	defer func() { _ = rows.Close() }()

	cells, err := scanCells(rows)
	if err != nil {
		return nil, nil, err
	}
	return meta, cells, nil
}

// DistinctScenes returns every scene name referenced by at least one
// cell, whether or not a consolidated scene row exists.
func (m *MemoryStore) DistinctScenes(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT DISTINCT scene FROM mem_cells ORDER BY scene`)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "listing distinct scenes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scenes []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning scene name: %w", err)
		}
		scenes = append(scenes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating scene names: %w", err)
	}
	return scenes, nil
}
