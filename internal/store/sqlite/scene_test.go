// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ConsolidateScene(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "consolidate")

	insertCell(t, ms, "project-x", "first", 0.5, nil)
	insertCell(t, ms, "project-x", "second", 0.5, nil)

	require.NoError(t, ms.ConsolidateScene(ctx, "project-x", "two notes about project x", nil))

	scenes, err := ms.ListScenes(ctx)
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "project-x", scenes[0].Scene)
	assert.Equal(t, "two notes about project x", scenes[0].Summary)
	assert.Equal(t, 2, scenes[0].CellCount)

	// Re-consolidation replaces the row wholesale and recounts live.
	insertCell(t, ms, "project-x", "third", 0.5, nil)
	require.NoError(t, ms.ConsolidateScene(ctx, "project-x", "three notes now", []float32{1, 0}))

	scenes, err = ms.ListScenes(ctx)
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "three notes now", scenes[0].Summary)
	assert.Equal(t, 3, scenes[0].CellCount)
}

func TestMemoryStore_GetScene(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "get-scene")

	low := insertCell(t, ms, "project-x", "minor detail", 0.2, nil)
	high := insertCell(t, ms, "project-x", "key decision", 0.9, nil)

	// Cells exist before any consolidation: meta is nil, cells are live.
	meta, cells, err := ms.GetScene(ctx, "project-x")
	require.NoError(t, err)
	assert.Nil(t, meta)
	require.Len(t, cells, 2)
	assert.Equal(t, high, cells[0].ID)
	assert.Equal(t, low, cells[1].ID)

	require.NoError(t, ms.ConsolidateScene(ctx, "project-x", "summary", nil))

	meta, cells, err = ms.GetScene(ctx, "project-x")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "summary", meta.Summary)
	assert.Len(t, cells, 2)

	// Unknown scene: nothing at all, and no error.
	meta, cells, err = ms.GetScene(ctx, "no-such-scene")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Empty(t, cells)
}

func TestMemoryStore_DistinctScenes(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "distinct")

	insertCell(t, ms, "beta", "b", 0.5, nil)
	insertCell(t, ms, "alpha", "a1", 0.5, nil)
	insertCell(t, ms, "alpha", "a2", 0.5, nil)

	scenes, err := ms.DistinctScenes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, scenes)
}
