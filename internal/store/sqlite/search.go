// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

const (
	similarityWeight = 0.7
	salienceWeight   = 0.3
)

// SearchKeyword tokenizes the query into alphanumeric runs, OR-combines
// them against the FTS index, and returns matches ordered by descending
// salience. Each returned cell's access_count is incremented in the same
// transaction as the read.
func (m *MemoryStore) SearchKeyword(ctx context.Context, query string, limit int) ([]*store.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "beginning keyword search: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `SELECT c.id, c.scene, c.cell_type, c.salience, c.content, c.source, c.tags, c.access_count, c.created_at, c.updated_at
FROM mem_cells_fts f
JOIN mem_cells c ON c.id = f.rowid
WHERE mem_cells_fts MATCH ?
ORDER BY c.salience DESC
LIMIT ?`

	rows, err := tx.QueryContext(ctx, q, match, limit)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "running keyword search: %w", err)
	}

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}

	if err := touchResults(ctx, tx, results); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "committing keyword search: %w", err)
	}
	return results, nil
}

// SearchVector linearly scans every embedded cell, scores each as
// 0.7*cosine + 0.3*salience, and returns the top matches by score.
// The scan is exact: recall beats speed at this store's size. Access
// counts for returned cells are incremented in the same transaction.
func (m *MemoryStore) SearchVector(ctx context.Context, query []float32, limit int) ([]*store.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if len(query) == 0 {
		return nil, ocerr.New(ocerr.CodeStoreInvalidInput, "vector search query must not be empty")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "beginning vector search: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `SELECT id, scene, cell_type, salience, content, source, tags, access_count, created_at, updated_at, embedding
FROM mem_cells WHERE embedding IS NOT NULL`

	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning embedded cells: %w", err)
	}

	var results []*store.SearchResult
	for rows.Next() {
		var r store.SearchResult
		var tagsJSON, createdAt, updatedAt string
		var blob []byte
		if err := rows.Scan(
			&r.ID, &r.Scene, &r.CellType, &r.Salience, &r.Content, &r.Source,
			&tagsJSON, &r.AccessCount, &createdAt, &updatedAt, &blob,
		); err != nil {
			_ = rows.Close()
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning embedded cell: %w", err)
		}

		vec := decodeVector(blob)
		if len(vec) != len(query) {
			// Embedding model changed under us; skip rather than fail.
			continue
		}

		r.Tags = decodeTags(r.ID, tagsJSON)
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		// Blend from the raw similarity; rounding is presentation only.
		sim := cosineSimilarity(query, vec)
		r.Similarity = round4(sim)
		r.Score = round4(similarityWeight*sim + salienceWeight*r.Salience)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating embedded cells: %w", err)
	}
	_ = rows.Close()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if err := touchResults(ctx, tx, results); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "committing vector search: %w", err)
	}
	return results, nil
}

// touchResults increments access_count for each returned cell inside
// the search transaction, so a surfaced cell is always counted exactly
// once per search.
func touchResults(ctx context.Context, tx *sql.Tx, results []*store.SearchResult) error {
	for _, r := range results {
		if _, err := tx.ExecContext(ctx,
			`UPDATE mem_cells SET access_count = access_count + 1 WHERE id = ?`, r.ID,
		); err != nil {
			return ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "incrementing access count for cell %d: %w", r.ID, err)
		}
		r.AccessCount++
	}
	return nil
}

// scanResults reads search rows (without embeddings) into results.
func scanResults(rows *sql.Rows) ([]*store.SearchResult, error) {
	defer func() { _ = rows.Close() }()

	var results []*store.SearchResult
	for rows.Next() {
		var r store.SearchResult
		var tagsJSON, createdAt, updatedAt string
		if err := rows.Scan(
			&r.ID, &r.Scene, &r.CellType, &r.Salience, &r.Content, &r.Source,
			&tagsJSON, &r.AccessCount, &createdAt, &updatedAt,
		); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "scanning search row: %w", err)
		}
		r.Tags = decodeTags(r.ID, tagsJSON)
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "iterating search rows: %w", err)
	}
	return results, nil
}

// ftsQuery turns free text into an FTS5 MATCH expression: alphanumeric
// runs become quoted tokens OR-combined, so punctuation never reaches
// the FTS parser. Returns "" when the query holds no tokens.
func ftsQuery(query string) string {
	tokens := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return ""
	}

	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// cosineSimilarity computes dot(a,b)/(|a||b|+eps); the epsilon keeps a
// zero vector from dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + 1e-10)
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
