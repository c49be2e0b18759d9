// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package store

import "time"

// CellType classifies what kind of knowledge a cell holds.
type CellType string

const (
	CellTypeFact       CellType = "fact"
	CellTypeDecision   CellType = "decision"
	CellTypePreference CellType = "preference"
	CellTypeTask       CellType = "task"
	CellTypeRisk       CellType = "risk"
	CellTypePlan       CellType = "plan"
	CellTypeLesson     CellType = "lesson"
)

// ValidCellType reports whether t is one of the known cell types.
func ValidCellType(t CellType) bool {
	switch t {
	case CellTypeFact, CellTypeDecision, CellTypePreference,
		CellTypeTask, CellTypeRisk, CellTypePlan, CellTypeLesson:
		return true
	}
	return false
}

// DefaultSalience is assigned when a cell is stored without an
// explicit importance weight.
const DefaultSalience = 0.5

// SalienceFloor is the minimum salience decay may leave behind.
const SalienceFloor = 0.1

// Cell is one atomic memory fact belonging to a scene.
type Cell struct {
	ID          int64     `json:"id"`
	Scene       string    `json:"scene"`
	CellType    CellType  `json:"cell_type"`
	Salience    float64   `json:"salience"`
	Content     string    `json:"content"`
	Source      string    `json:"source,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	AccessCount int       `json:"access_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Scene is the consolidated summary over all cells sharing one scene name.
// CellCount is a cache from the last consolidation, not live-maintained.
type Scene struct {
	Scene     string    `json:"scene"`
	Summary   string    `json:"summary"`
	CellCount int       `json:"cell_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is a cell surfaced by search. Similarity and Score are
// populated by vector search only; the raw embedding is never included.
type SearchResult struct {
	Cell
	Similarity float64 `json:"similarity,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// CellRef identifies a cell awaiting embedding backfill.
type CellRef struct {
	ID      int64
	Content string
}

// Stats is a read-only aggregate view of the store.
type Stats struct {
	TotalCells    int64            `json:"total_cells"`
	EmbeddedCells int64            `json:"embedded_cells"`
	TotalScenes   int64            `json:"total_scenes"`
	ByType        map[string]int64 `json:"by_type"`
	TopScenes     map[string]int64 `json:"top_scenes"`
}
