// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package memory is the service layer tying the store to the model
// providers: it decides when to embed, when to fall back to keyword
// search, and how scenes get summarized when no model is reachable.
package memory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sam-ueckert/oc-memory/internal/provider"
	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// SearchMode reports which retrieval path actually served a search.
type SearchMode string

const (
	SearchModeVector  SearchMode = "vector"
	SearchModeKeyword SearchMode = "keyword"
)

const (
	// Local summaries take the top cells by salience, clip each, and
	// clip the whole summary.
	localSummaryCells   = 10
	localSummaryCellLen = 100
	localSummaryTotal   = 300

	// Model summaries see at most this many cells, most salient first.
	modelSummaryCells = 15

	// Backfill embeds in batches this size.
	embedBatchSize = 16
)

// Service owns the memory workflows. Providers may be the null
// implementations; every workflow except extraction degrades gracefully
// without them.
type Service struct {
	store     store.MemoryStore
	embedder  provider.Embedder
	extractor provider.Extractor
	logger    *slog.Logger
}

// NewService wires a service. Nil providers are replaced with nulls so
// callers never branch on their presence.
func NewService(st store.MemoryStore, embedder provider.Embedder, extractor provider.Extractor, logger *slog.Logger) *Service {
	if embedder == nil {
		embedder = provider.NullEmbedder{}
	}
	if extractor == nil {
		extractor = provider.NullExtractor{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{store: st, embedder: embedder, extractor: extractor, logger: logger}
}

// StoreCells persists cells, embedding each best-effort: on any
// provider failure the cell is stored without a vector and can be
// backfilled later with EmbedMissing.
func (s *Service) StoreCells(ctx context.Context, cells []*store.Cell) ([]int64, error) {
	ids := make([]int64, 0, len(cells))
	for _, cell := range cells {
		embedding, err := s.embedder.Embed(ctx, cell.Content)
		if err != nil {
			if !ocerr.IsProviderFailure(err) {
				return ids, err
			}
			s.logger.Debug("storing cell without embedding", "scene", cell.Scene, "error", err)
			embedding = nil
		}

		id, err := s.store.InsertCell(ctx, cell, embedding)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ExtractAndStore distills text into cells via the extraction model and
// stores them. The model names each cell's scene; fallbackScene covers
// cells it leaves unnamed. Unlike StoreCells this cannot degrade: no
// extractor means no cells, so the unavailable error propagates.
func (s *Service) ExtractAndStore(ctx context.Context, fallbackScene, text string) ([]int64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ocerr.New(ocerr.CodeStoreInvalidInput, "nothing to extract from empty text")
	}

	cells, err := s.extractor.ExtractCells(ctx, fallbackScene, text)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		s.logger.Info("extraction produced no cells")
		return nil, nil
	}

	return s.StoreCells(ctx, cells)
}

// Search embeds the query and runs vector search; when embedding fails
// for any provider reason, or no cell carries an embedding yet, it
// falls back to keyword search and says so in the returned mode.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*store.SearchResult, SearchMode, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if !ocerr.IsProviderFailure(err) {
			return nil, "", err
		}
		s.logger.Debug("falling back to keyword search", "error", err)
		results, err := s.store.SearchKeyword(ctx, query, limit)
		return results, SearchModeKeyword, err
	}

	results, err := s.store.SearchVector(ctx, embedding, limit)
	if err != nil || len(results) > 0 {
		return results, SearchModeVector, err
	}

	results, err = s.store.SearchKeyword(ctx, query, limit)
	return results, SearchModeKeyword, err
}

// Consolidate rebuilds one scene's summary. The extraction model writes
// it when reachable; otherwise the summary is assembled locally from
// the scene's most salient cells. A scene with no cells is a no-op.
func (s *Service) Consolidate(ctx context.Context, scene string) error {
	_, cells, err := s.store.GetScene(ctx, scene)
	if err != nil {
		return err
	}
	if len(cells) == 0 {
		s.logger.Info("skipping consolidation of empty scene", "scene", scene)
		return nil
	}

	contents := make([]string, 0, len(cells))
	for _, c := range cells {
		contents = append(contents, c.Content)
	}

	// GetScene orders by descending salience, so clipping keeps the
	// most important cells.
	modelContents := contents
	if len(modelContents) > modelSummaryCells {
		modelContents = modelContents[:modelSummaryCells]
	}

	summary, err := s.extractor.Summarize(ctx, scene, modelContents)
	if err != nil {
		if !ocerr.IsProviderFailure(err) {
			return err
		}
		s.logger.Debug("building local summary", "scene", scene, "error", err)
		summary = localSummary(contents)
	}

	var summaryEmbedding []float32
	if emb, err := s.embedder.Embed(ctx, summary); err == nil {
		summaryEmbedding = emb
	}

	return s.store.ConsolidateScene(ctx, scene, summary, summaryEmbedding)
}

// ConsolidateAll consolidates every scene referenced by at least one
// cell and returns how many were processed.
func (s *Service) ConsolidateAll(ctx context.Context) (int, error) {
	scenes, err := s.store.DistinctScenes(ctx)
	if err != nil {
		return 0, err
	}

	for i, scene := range scenes {
		if err := s.Consolidate(ctx, scene); err != nil {
			return i, err
		}
	}
	return len(scenes), nil
}

// EmbedMissing backfills embeddings for cells stored while the embedder
// was unreachable, in batches. Returns how many cells were embedded;
// stops at the first failure so a dead daemon doesn't burn through the
// whole backlog.
func (s *Service) EmbedMissing(ctx context.Context) (int, error) {
	refs, err := s.store.CellsMissingEmbedding(ctx)
	if err != nil {
		return 0, err
	}

	done := 0
	for start := 0; start < len(refs); start += embedBatchSize {
		batch := refs[start:min(start+embedBatchSize, len(refs))]

		texts := make([]string, len(batch))
		for i, ref := range batch {
			texts[i] = ref.Content
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return done, err
		}

		for i, ref := range batch {
			if err := s.store.UpdateEmbedding(ctx, ref.ID, embeddings[i]); err != nil {
				return done, err
			}
			done++
		}
	}
	return done, nil
}

// localSummary joins the most salient cell contents into a crude
// summary when no model is available. Callers pass contents already
// ordered by descending salience.
func localSummary(contents []string) string {
	if len(contents) > localSummaryCells {
		contents = contents[:localSummaryCells]
	}

	parts := make([]string, 0, len(contents))
	for _, c := range contents {
		parts = append(parts, clip(c, localSummaryCellLen))
	}
	return clip(strings.Join(parts, "; "), localSummaryTotal)
}

// clip truncates s to max runes. Rune-based so multibyte content never
// gets split mid-character.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
