// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package store defines the domain types and backend contract for the
// hybrid memory store: cells grouped into scenes, searched by keyword
// or vector similarity, consolidated and decayed over time.
package store

import "context"

// MemoryStore is the full contract a storage backend implements. A single
// handle owns one on-disk store; the caller passes it to every component
// rather than sharing ambient connection state.
type MemoryStore interface {
	CellStore
	SearchEngine
	SceneStore
	Sweeper

	// Stats returns read-only aggregates. Never mutates access counts.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// CellStore is CRUD over individual memory cells.
type CellStore interface {
	// InsertCell persists a cell (and its keyword-index entry) in one
	// transaction. Salience is clamped to [0,1], tags are lowercased,
	// trimmed, and deduplicated. The embedding is optional.
	InsertCell(ctx context.Context, cell *Cell, embedding []float32) (int64, error)

	// TagCell merges tags into an existing cell's tag set and refreshes
	// updated_at. Tagging a missing id is a no-op.
	TagCell(ctx context.Context, id int64, tags []string) error

	// UpdateEmbedding attaches or replaces a cell's embedding.
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error

	// DeleteCell removes a cell and its index entry; idempotent.
	DeleteCell(ctx context.Context, id int64) error

	// CellsMissingEmbedding returns a snapshot of cells awaiting
	// embedding backfill.
	CellsMissingEmbedding(ctx context.Context) ([]CellRef, error)

	// AllCells returns every cell ordered by id, for export.
	AllCells(ctx context.Context) ([]*Cell, error)

	// SearchByTag returns cells carrying the given tag ordered by
	// descending salience. Does not touch access counts.
	SearchByTag(ctx context.Context, tag string, limit int) ([]*Cell, error)
}

// SearchEngine exposes the two retrieval modes independently; fallback
// policy (vector first, keyword second) belongs to the caller.
type SearchEngine interface {
	// SearchKeyword tokenizes the query into alphanumeric runs,
	// OR-combines them, and returns matches ordered by descending
	// salience. Each returned cell's access_count is incremented once,
	// atomically with the read. An empty token set yields an empty
	// result.
	SearchKeyword(ctx context.Context, query string, limit int) ([]*SearchResult, error)

	// SearchVector linearly scans embedded cells, scoring each
	// 0.7*cosine + 0.3*salience, and returns the top matches by score.
	// Access counts are incremented like SearchKeyword. No embedded
	// cells yields an empty result, not an error.
	SearchVector(ctx context.Context, query []float32, limit int) ([]*SearchResult, error)
}

// SceneStore aggregates cells into consolidated scenes.
type SceneStore interface {
	// ConsolidateScene recounts the scene's member cells and upserts the
	// scene row wholesale with the given summary and optional embedding.
	ConsolidateScene(ctx context.Context, scene, summary string, summaryEmbedding []float32) error

	// ListScenes returns all consolidated scenes, most recently updated
	// first.
	ListScenes(ctx context.Context) ([]*Scene, error)

	// GetScene returns the scene metadata (nil if never consolidated)
	// and the member cells ordered by descending salience, derived live
	// from the cell table.
	GetScene(ctx context.Context, scene string) (*Scene, []*Cell, error)

	// DistinctScenes returns every scene name referenced by at least one
	// cell, whether or not a scene row exists.
	DistinctScenes(ctx context.Context) ([]string, error)
}

// Sweeper lowers the salience of stale, rarely-accessed cells.
type Sweeper interface {
	// Decay multiplies salience by factor for cells older than
	// olderThanDays with access_count < 3 and salience above the floor,
	// in one transaction. Returns the number of affected cells.
	Decay(ctx context.Context, olderThanDays int, factor float64) (int64, error)
}
