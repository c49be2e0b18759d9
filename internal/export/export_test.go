// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package export_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-ueckert/oc-memory/internal/export"
	"github.com/sam-ueckert/oc-memory/internal/store"
	"github.com/sam-ueckert/oc-memory/internal/store/sqlite"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

func testStore(t *testing.T, name string) *sqlite.MemoryStore {
	t.Helper()
	ms, err := sqlite.NewMemoryStore(filepath.Join(t.TempDir(), name+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ms.Close() })
	return ms
}

func seedStore(t *testing.T, ms *sqlite.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []*store.Cell{
		{Scene: "project-x", CellType: store.CellTypeDecision, Salience: 0.9, Content: "ship fridays are banned", Tags: []string{"process"}},
		{Scene: "project-x", CellType: store.CellTypeFact, Salience: 0.4, Content: "staging runs on the old cluster"},
		{Scene: "team/ops", CellType: store.CellTypeRisk, Salience: 0.8, Content: "single point of failure in the proxy"},
	} {
		_, err := ms.InsertCell(ctx, c, nil)
		require.NoError(t, err)
	}
	require.NoError(t, ms.ConsolidateScene(ctx, "project-x", "decisions about project x", nil))
}

func TestExportJSON(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "export-json")
	seedStore(t, ms)

	dir := t.TempDir()
	path, err := export.ExportJSON(ctx, ms, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var snap export.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.NoError(t, uuid.Validate(snap.ID))
	assert.WithinDuration(t, time.Now(), snap.ExportedAt, time.Minute)
	assert.Len(t, snap.Cells, 3)
	assert.Len(t, snap.Scenes, 1)
	assert.EqualValues(t, 3, snap.Stats.TotalCells)
}

func TestExportMarkdown(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "export-md")
	seedStore(t, ms)

	dir := t.TempDir()
	files, err := export.ExportMarkdown(ctx, ms, dir)
	require.NoError(t, err)
	require.Len(t, files, 3) // index + two scenes

	index, err := os.ReadFile(filepath.Join(dir, "scenes-index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "project-x")
	assert.Contains(t, string(index), "2 cells")

	// "team/ops" must land in a filename-safe file.
	scene, err := os.ReadFile(filepath.Join(dir, "scene-team_ops.md"))
	require.NoError(t, err)
	assert.Contains(t, string(scene), "single point of failure")

	// Summary appears, most salient cell listed first.
	px, err := os.ReadFile(filepath.Join(dir, "scene-project-x.md"))
	require.NoError(t, err)
	content := string(px)
	assert.Contains(t, content, "decisions about project x")
	assert.Less(t, strings.Index(content, "ship fridays"), strings.Index(content, "staging runs"))
}

func TestRestoreFromJSON_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testStore(t, "restore-src")
	seedStore(t, src)

	path, err := export.ExportJSON(ctx, src, t.TempDir())
	require.NoError(t, err)

	dst := testStore(t, "restore-dst")
	n, err := export.RestoreFromJSON(ctx, dst, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cells, err := dst.AllCells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 3)

	// Original timestamps survive the round trip.
	orig, err := src.AllCells(ctx)
	require.NoError(t, err)
	assert.True(t, cells[0].CreatedAt.Equal(orig[0].CreatedAt))

	// Scene summaries come back with live counts.
	meta, _, err := dst.GetScene(ctx, "project-x")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "decisions about project x", meta.Summary)
	assert.Equal(t, 2, meta.CellCount)
}

func TestRestoreFromJSON_RejectsBadSnapshots(t *testing.T) {
	ctx := context.Background()
	ms := testStore(t, "restore-bad")
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0o600))
	_, err := export.RestoreFromJSON(ctx, ms, garbage)
	require.Error(t, err)
	assert.True(t, ocerr.HasCode(err, ocerr.CodeExportRestoreInvalid))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"cells": []}`), 0o600))
	_, err = export.RestoreFromJSON(ctx, ms, empty)
	require.Error(t, err)
	assert.True(t, ocerr.HasCode(err, ocerr.CodeExportRestoreInvalid))
}

func TestBackupSQLite_ValidatesInput(t *testing.T) {
	ctx := context.Background()

	err := export.BackupSQLite(ctx, "/tmp/nope.db", "")
	require.Error(t, err)
	assert.True(t, ocerr.HasCode(err, ocerr.CodeBackupCopyFailure))

	err = export.BackupSQLite(ctx, "/tmp/nope.db", "no-colon-here")
	require.Error(t, err)

	// Well-formed remote, but the database file is missing.
	err = export.BackupSQLite(ctx, filepath.Join(t.TempDir(), "missing.db"), "user@host:/backups")
	require.Error(t, err)
}
