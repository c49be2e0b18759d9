// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package export

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// RestoreFromJSON loads a snapshot file into the store. Cells keep
// their original timestamps and access counts but receive fresh ids;
// embeddings are not restored and can be rebuilt with the embed
// backfill. Returns the number of cells restored.
func RestoreFromJSON(ctx context.Context, ms store.MemoryStore, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, ocerr.Errorf(ocerr.CodeExportRestoreInvalid, "reading snapshot %s: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, ocerr.Errorf(ocerr.CodeExportRestoreInvalid, "parsing snapshot %s: %w", path, err)
	}
	if len(snap.Cells) == 0 {
		return 0, ocerr.Errorf(ocerr.CodeExportRestoreInvalid, "snapshot %s holds no cells", path)
	}

	restored := 0
	for _, cell := range snap.Cells {
		cell.ID = 0
		if _, err := ms.InsertCell(ctx, cell, nil); err != nil {
			return restored, err
		}
		restored++
	}

	// Rebuild scene rows from the snapshot's summaries with live counts.
	for _, scene := range snap.Scenes {
		if err := ms.ConsolidateScene(ctx, scene.Scene, scene.Summary, nil); err != nil {
			return restored, err
		}
	}

	return restored, nil
}
