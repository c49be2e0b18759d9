// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// InsertCell persists a cell and returns its assigned id. Salience is
// clamped to [0,1], tags are normalized, and the keyword index entry is
// written by trigger inside the same transaction as the row itself.
// Non-zero CreatedAt/UpdatedAt are honored (restore path); otherwise
// both are set to now.
func (m *MemoryStore) InsertCell(ctx context.Context, cell *store.Cell, embedding []float32) (int64, error) {
	if strings.TrimSpace(cell.Scene) == "" {
		return 0, ocerr.New(ocerr.CodeStoreInvalidInput, "cell scene must not be empty")
	}

	cellType := cell.CellType
	if cellType == "" {
		cellType = store.CellTypeFact
	}
	if !store.ValidCellType(cellType) {
		return 0, ocerr.Errorf(ocerr.CodeStoreInvalidInput, "unknown cell type %q", cellType)
	}

	salience := clampSalience(cell.Salience)

	tagsJSON, err := json.Marshal(normalizeTags(cell.Tags, nil))
	if err != nil {
		return 0, ocerr.Errorf(ocerr.CodeStoreInvalidInput, "marshalling tags: %w", err)
	}

	blob, err := encodeVector(embedding)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	createdAt := cell.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := cell.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	const q = `INSERT INTO mem_cells
	(scene, cell_type, salience, content, source, tags, embedding, access_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := m.db.ExecContext(ctx, q,
		cell.Scene,
		string(cellType),
		salience,
		cell.Content,
		cell.Source,
		string(tagsJSON),
		blob,
		cell.AccessCount,
		formatTime(createdAt),
		formatTime(updatedAt),
	)
	if err != nil {
		return 0, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "inserting cell: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "reading inserted cell id: %w", err)
	}
	return id, nil
}

// TagCell merges tags into the cell's existing tag set. Tagging a
// missing id is a silent no-op. The keyword index entry is refreshed by
// the update trigger in the same transaction.
func (m *MemoryStore) TagCell(ctx context.Context, id int64, tags []string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "beginning tag transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingJSON string
	err = tx.QueryRowContext(ctx, `SELECT tags FROM mem_cells WHERE id = ?`, id).Scan(&existingJSON)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "loading tags for cell %d: %w", id, err)
	}

	merged, err := json.Marshal(normalizeTags(tags, decodeTags(id, existingJSON)))
	if err != nil {
		return ocerr.Errorf(ocerr.CodeStoreInvalidInput, "marshalling merged tags: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE mem_cells SET tags = ?, updated_at = ? WHERE id = ?`,
		string(merged), formatTime(time.Now()), id,
	)
	if err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "updating tags for cell %d: %w", id, err)
	}

	return tx.Commit()
}

// UpdateEmbedding attaches or replaces the cell's embedding. A missing
// id is a no-op; the embedding is a side-channel value and does not
// advance updated_at.
func (m *MemoryStore) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	blob, err := encodeVector(embedding)
	if err != nil {
		return err
	}

	if _, err := m.db.ExecContext(ctx, `UPDATE mem_cells SET embedding = ? WHERE id = ?`, blob, id); err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "updating embedding for cell %d: %w", id, err)
	}
	return nil
}

// DeleteCell removes a cell; the delete trigger removes its keyword
// index entry in the same transaction. Deleting a missing id is a no-op.
func (m *MemoryStore) DeleteCell(ctx context.Context, id int64) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM mem_cells WHERE id = ?`, id); err != nil {
		return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "deleting cell %d: %w", id, err)
	}
	return nil
}

// CellsMissingEmbedding returns a snapshot of cells with no embedding,
// for backfill workflows.
func (m *MemoryStore) CellsMissingEmbedding(ctx context.Context) ([]store.CellRef, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, content FROM mem_cells WHERE embedding IS NULL ORDER BY id`)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "listing cells missing embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []store.CellRef
	for rows.Next() {
		var ref store.CellRef
		if err := rows.Scan(&ref.ID, &ref.Content); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning cell ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating cell refs: %w", err)
	}
	return refs, nil
}

// AllCells returns every cell ordered by id, for export. Access counts
// are not touched.
func (m *MemoryStore) AllCells(ctx context.Context) ([]*store.Cell, error) {
	const q = `SELECT id, scene, cell_type, salience, content, source, tags, access_count, created_at, updated_at
FROM mem_cells ORDER BY id`

	rows, err := m.db.QueryContext(ctx, q)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "listing all cells: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCells(rows)
}

// SearchByTag returns cells carrying the given tag, ordered by
// descending salience. A direct read: access counts are not touched.
func (m *MemoryStore) SearchByTag(ctx context.Context, tag string, limit int) ([]*store.Cell, error) {
	if limit <= 0 {
		limit = 20
	}

	// Tags are stored as a JSON array of quoted strings, so a quoted
	// LIKE pattern matches whole tags only.
	pattern := `%"` + strings.ToLower(strings.TrimSpace(tag)) + `"%`

	const q = `SELECT id, scene, cell_type, salience, content, source, tags, access_count, created_at, updated_at
FROM mem_cells WHERE tags LIKE ? ORDER BY salience DESC LIMIT ?`

	rows, err := m.db.QueryContext(ctx, q, pattern, limit)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "searching cells by tag: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCells(rows)
}

// scanCells reads cell rows (without embeddings) into a slice.
func scanCells(rows *sql.Rows) ([]*store.Cell, error) {
	var cells []*store.Cell
	for rows.Next() {
		var c store.Cell
		var tagsJSON, createdAt, updatedAt string
		if err := rows.Scan(
			&c.ID, &c.Scene, &c.CellType, &c.Salience, &c.Content, &c.Source,
			&tagsJSON, &c.AccessCount, &createdAt, &updatedAt,
		); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning cell row: %w", err)
		}
		c.Tags = decodeTags(c.ID, tagsJSON)
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		cells = append(cells, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating cell rows: %w", err)
	}
	return cells, nil
}

// normalizeTags lowercases, trims, deduplicates, and sorts the union of
// the two tag sets. Empty tags are dropped.
func normalizeTags(tags, existing []string) []string {
	set := make(map[string]struct{}, len(tags)+len(existing))
	for _, t := range existing {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// decodeTags parses the stored tags JSON, treating corrupt values as an
// empty set rather than failing the whole read.
func decodeTags(id int64, tagsJSON string) []string {
	if tagsJSON == "" || tagsJSON == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		slog.Warn("skipping corrupt tags value", "cell_id", id, "error", err)
		return nil
	}
	return tags
}

// clampSalience keeps salience inside [0,1]; out-of-range input is
// clamped, not rejected.
func clampSalience(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
