// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite

import (
	"context"
	"time"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// Decay multiplies salience by factor for cells older than olderThanDays
// with fewer than 3 accesses, never dropping below the floor. Cells
// already at or below the floor are untouched. One UPDATE, so the sweep
// is atomic.
func (m *MemoryStore) Decay(ctx context.Context, olderThanDays int, factor float64) (int64, error) {
	if olderThanDays <= 0 {
		return 0, ocerr.Errorf(ocerr.CodeStoreInvalidInput, "decay age must be positive, got %d", olderThanDays)
	}
	if factor <= 0 || factor > 1 {
		return 0, ocerr.Errorf(ocerr.CodeStoreInvalidInput, "decay factor must be in (0,1], got %g", factor)
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	const q = `UPDATE mem_cells
SET salience = MAX(?, salience * ?), updated_at = ?
WHERE created_at < ? AND access_count < 3 AND salience > ?`

	res, err := m.db.ExecContext(ctx, q,
		store.SalienceFloor, factor, formatTime(time.Now()),
		formatTime(cutoff), store.SalienceFloor,
	)
	if err != nil {
		return 0, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "decaying cells: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "counting decayed cells: %w", err)
	}
	return affected, nil
}
