// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite

import (
	"context"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// Stats returns read-only aggregates over the store. Access counts are
// never touched here.
func (m *MemoryStore) Stats(ctx context.Context) (*store.Stats, error) {
	stats := &store.Stats{
		ByType:    map[string]int64{},
		TopScenes: map[string]int64{},
	}

	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mem_cells`).Scan(&stats.TotalCells); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "counting cells: %w", err)
	}

	if err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mem_cells WHERE embedding IS NOT NULL`,
	).Scan(&stats.EmbeddedCells); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "counting embedded cells: %w", err)
	}

	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mem_scenes`).Scan(&stats.TotalScenes); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "counting scenes: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `SELECT cell_type, COUNT(*) FROM mem_cells GROUP BY cell_type`)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "grouping cells by type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var cellType string
		var count int64
		if err := rows.Scan(&cellType, &count); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning type count: %w", err)
		}
		stats.ByType[cellType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating type counts: %w", err)
	}

	sceneRows, err := m.db.QueryContext(ctx,
		`SELECT scene, COUNT(*) AS n FROM mem_cells GROUP BY scene ORDER BY n DESC LIMIT 10`,
	)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "ranking scenes: %w", err)
	}
	defer func() { _ = sceneRows.Close() }()

	for sceneRows.Next() {
		var scene string
		var count int64
		if err := sceneRows.Scan(&scene, &count); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning scene count: %w", err)
		}
		stats.TopScenes[scene] = count
	}
	if err := sceneRows.Err(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating scene counts: %w", err)
	}

	return stats, nil
}
