// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package export writes the memory store out in portable forms: a JSON
// snapshot for machine restore and a markdown tree for human browsing.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// Snapshot is the JSON export format. Embeddings are deliberately
// excluded: they are re-derivable and model-specific.
type Snapshot struct {
	ID         string         `json:"id"`
	ExportedAt time.Time      `json:"exported_at"`
	Stats      *store.Stats   `json:"stats"`
	Scenes     []*store.Scene `json:"scenes"`
	Cells      []*store.Cell  `json:"cells"`
}

// ExportJSON writes a full snapshot into dir and returns the written
// file's path.
func ExportJSON(ctx context.Context, ms store.MemoryStore, dir string) (string, error) {
	snap, err := buildSnapshot(ctx, ms)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ocerr.Errorf(ocerr.CodeExportWriteFailure, "creating export directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", ocerr.Errorf(ocerr.CodeExportWriteFailure, "marshalling snapshot: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("memory-%s.json", snap.ExportedAt.Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", ocerr.Errorf(ocerr.CodeExportWriteFailure, "writing snapshot: %w", err)
	}
	return path, nil
}

func buildSnapshot(ctx context.Context, ms store.MemoryStore) (*Snapshot, error) {
	stats, err := ms.Stats(ctx)
	if err != nil {
		return nil, err
	}
	scenes, err := ms.ListScenes(ctx)
	if err != nil {
		return nil, err
	}
	cells, err := ms.AllCells(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:         uuid.NewString(),
		ExportedAt: time.Now().UTC(),
		Stats:      stats,
		Scenes:     scenes,
		Cells:      cells,
	}, nil
}

// ExportMarkdown writes a browsable markdown tree into dir: one index
// file plus one file per scene, cells ordered by descending salience.
func ExportMarkdown(ctx context.Context, ms store.MemoryStore, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeExportWriteFailure, "creating export directory: %w", err)
	}

	names, err := ms.DistinctScenes(ctx)
	if err != nil {
		return nil, err
	}

	var written []string
	var index strings.Builder
	index.WriteString("# Memory Scenes\n\n")

	for _, name := range names {
		meta, cells, err := ms.GetScene(ctx, name)
		if err != nil {
			return nil, err
		}

		file := "scene-" + safeFileName(name) + ".md"
		fmt.Fprintf(&index, "- [%s](%s) — %d cells\n", name, file, len(cells))

		path := filepath.Join(dir, file)
		if err := os.WriteFile(path, []byte(renderScene(name, meta, cells)), 0o600); err != nil {
			return nil, ocerr.Errorf(ocerr.CodeExportWriteFailure, "writing scene file %s: %w", file, err)
		}
		written = append(written, path)
	}

	indexPath := filepath.Join(dir, "scenes-index.md")
	if err := os.WriteFile(indexPath, []byte(index.String()), 0o600); err != nil {
		return nil, ocerr.Errorf(ocerr.CodeExportWriteFailure, "writing scene index: %w", err)
	}
	return append([]string{indexPath}, written...), nil
}

func renderScene(name string, meta *store.Scene, cells []*store.Cell) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)

	if meta != nil && meta.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", meta.Summary)
	}

	for _, c := range cells {
		fmt.Fprintf(&b, "- **[%s]** %s (salience %.2f", c.CellType, c.Content, c.Salience)
		if len(c.Tags) > 0 {
			fmt.Fprintf(&b, ", tags: %s", strings.Join(c.Tags, ", "))
		}
		b.WriteString(")\n")
	}
	return b.String()
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// safeFileName maps a scene name onto the filename-safe alphabet.
func safeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}
