// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package provider

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/sam-ueckert/oc-memory/internal/store"
)

// extractedCell is the shape the extraction model is prompted to emit.
type extractedCell struct {
	Scene    string   `json:"scene"`
	Content  string   `json:"content"`
	CellType string   `json:"cell_type"`
	Salience float64  `json:"salience"`
	Tags     []string `json:"tags"`
}

// ParseCells turns a model's extraction response into cells. The model
// names each cell's scene so related memories self-organize;
// fallbackScene covers cells it leaves unnamed ("general" when that is
// empty too). Small models wrap JSON in code fences or prose, so the
// parser is forgiving: it strips fences, isolates the outermost JSON
// array, and treats anything unparsable as zero cells rather than an
// error. Unknown cell types degrade to fact; salience is clamped and
// defaults to 0.5 when absent.
func ParseCells(raw, fallbackScene, source string) []*store.Cell {
	payload := isolateJSONArray(stripCodeFences(raw))
	if payload == "" {
		return nil
	}

	var extracted []extractedCell
	if err := json.Unmarshal([]byte(payload), &extracted); err != nil {
		slog.Debug("discarding unparsable extraction output", "error", err)
		return nil
	}

	cells := make([]*store.Cell, 0, len(extracted))
	for _, e := range extracted {
		content := strings.TrimSpace(e.Content)
		if content == "" {
			continue
		}

		cellType := store.CellType(strings.ToLower(strings.TrimSpace(e.CellType)))
		if !store.ValidCellType(cellType) {
			cellType = store.CellTypeFact
		}

		salience := e.Salience
		if salience <= 0 {
			salience = store.DefaultSalience
		} else if salience > 1 {
			salience = 1
		}

		scene := strings.TrimSpace(e.Scene)
		if scene == "" {
			scene = strings.TrimSpace(fallbackScene)
		}
		if scene == "" {
			scene = "general"
		}

		cells = append(cells, &store.Cell{
			Scene:    scene,
			CellType: cellType,
			Salience: salience,
			Content:  content,
			Source:   source,
			Tags:     e.Tags,
		})
	}
	return cells
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx != -1 {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// isolateJSONArray returns the outermost [...] span, or "" when the
// text holds no array at all.
func isolateJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
