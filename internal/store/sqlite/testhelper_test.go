// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sam-ueckert/oc-memory/internal/store"
	"github.com/sam-ueckert/oc-memory/internal/store/sqlite"
)

// testDir creates a temp directory for a test and returns its path.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "oc-memory-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testDBPath returns a temp SQLite database path.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testDir(t), name+".db")
}

// testStore opens a fresh store and closes it on cleanup.
func testStore(t *testing.T, name string) *sqlite.MemoryStore {
	t.Helper()
	ms, err := sqlite.NewMemoryStore(testDBPath(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ms.Close() })
	return ms
}

// insertCell stores a minimal cell and returns its id.
func insertCell(t *testing.T, ms *sqlite.MemoryStore, scene, content string, salience float64, embedding []float32) int64 {
	t.Helper()
	id, err := ms.InsertCell(context.Background(), &store.Cell{
		Scene:    scene,
		CellType: store.CellTypeFact,
		Salience: salience,
		Content:  content,
	}, embedding)
	require.NoError(t, err)
	return id
}
