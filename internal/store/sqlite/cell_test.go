// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-ueckert/oc-memory/internal/store"
	"github.com/sam-ueckert/oc-memory/internal/store/sqlite"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

func TestMemoryStore_OpenIsIdempotent(t *testing.T) {
	db := testDBPath(t, "reopen")

	ms, err := sqlite.NewMemoryStore(db)
	require.NoError(t, err)
	insertCell(t, ms, "project-x", "first open", 0.5, nil)
	require.NoError(t, ms.Close())

	// Reopening runs the migration chain again; it must be a no-op.
	ms2, err := sqlite.NewMemoryStore(db)
	require.NoError(t, err)
	defer func() { _ = ms2.Close() }()

	cells, err := ms2.AllCells(context.Background())
	require.NoError(t, err)
	assert.Len(t, cells, 1)
}

func TestMemoryStore_InsertCell(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "insert")

	id, err := ms.InsertCell(ctx, &store.Cell{
		Scene:    "project-x",
		CellType: store.CellTypeDecision,
		Salience: 0.8,
		Content:  "we chose sqlite for local persistence",
		Source:   "standup",
		Tags:     []string{" Infra", "infra", "DB "},
	}, nil)
	require.NoError(t, err)
	assert.Positive(t, id)

	cells, err := ms.AllCells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 1)

	got := cells[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, store.CellTypeDecision, got.CellType)
	assert.InDelta(t, 0.8, got.Salience, 1e-9)
	assert.Equal(t, []string{"db", "infra"}, got.Tags)
	assert.Equal(t, 0, got.AccessCount)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMemoryStore_InsertCell_Validation(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "insert-validation")

	_, err := ms.InsertCell(ctx, &store.Cell{Scene: "  ", Content: "no scene"}, nil)
	require.Error(t, err)
	assert.True(t, ocerr.IsInvalidInput(err))

	_, err = ms.InsertCell(ctx, &store.Cell{Scene: "s", CellType: "opinion", Content: "bad type"}, nil)
	require.Error(t, err)
	assert.True(t, ocerr.IsInvalidInput(err))
}

func TestMemoryStore_InsertCell_ClampsSalience(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "insert-clamp")

	insertCell(t, ms, "s", "too hot", 1.5, nil)
	insertCell(t, ms, "s", "too cold", -0.5, nil)

	cells, err := ms.AllCells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.InDelta(t, 1.0, cells[0].Salience, 1e-9)
	assert.InDelta(t, 0.0, cells[1].Salience, 1e-9)
}

func TestMemoryStore_InsertCell_HonorsProvidedTimestamps(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "insert-backdate")

	past := time.Now().AddDate(0, 0, -90).UTC().Truncate(time.Second)
	id, err := ms.InsertCell(ctx, &store.Cell{
		Scene:     "archive",
		Content:   "restored from snapshot",
		CreatedAt: past,
		UpdatedAt: past,
	}, nil)
	require.NoError(t, err)

	cells, err := ms.AllCells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, id, cells[0].ID)
	assert.True(t, cells[0].CreatedAt.Equal(past))
}

func TestMemoryStore_TagCell(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "tag")

	id := insertCell(t, ms, "project-x", "tagged cell", 0.5, nil)

	require.NoError(t, ms.TagCell(ctx, id, []string{"Work", "work "}))
	require.NoError(t, ms.TagCell(ctx, id, []string{"work"})) // idempotent

	cells, err := ms.SearchByTag(ctx, "work", 10)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, []string{"work"}, cells[0].Tags)

	// Missing id is a silent no-op.
	require.NoError(t, ms.TagCell(ctx, 9999, []string{"ghost"}))
}

func TestMemoryStore_SearchByTag_OrdersBySalience(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "tag-order")

	low := insertCell(t, ms, "s", "low", 0.2, nil)
	high := insertCell(t, ms, "s", "high", 0.9, nil)
	require.NoError(t, ms.TagCell(ctx, low, []string{"infra"}))
	require.NoError(t, ms.TagCell(ctx, high, []string{"infra"}))

	cells, err := ms.SearchByTag(ctx, "infra", 10)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, high, cells[0].ID)
	assert.Equal(t, low, cells[1].ID)
}

func TestMemoryStore_DeleteCell(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "delete")

	id := insertCell(t, ms, "project-x", "ephemeral", 0.5, nil)
	require.NoError(t, ms.DeleteCell(ctx, id))
	require.NoError(t, ms.DeleteCell(ctx, id)) // idempotent

	cells, err := ms.AllCells(ctx)
	require.NoError(t, err)
	assert.Empty(t, cells)

	// The index entry must be gone too.
	results, err := ms.SearchKeyword(ctx, "ephemeral", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	stats, err := ms.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalCells)
}

func TestMemoryStore_EmbeddingBackfill(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "backfill")

	bare := insertCell(t, ms, "s", "missing embedding", 0.5, nil)
	insertCell(t, ms, "s", "has embedding", 0.5, []float32{1, 0, 0})

	refs, err := ms.CellsMissingEmbedding(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, bare, refs[0].ID)
	assert.Equal(t, "missing embedding", refs[0].Content)

	require.NoError(t, ms.UpdateEmbedding(ctx, bare, []float32{0, 1, 0}))

	refs, err = ms.CellsMissingEmbedding(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs)
}
