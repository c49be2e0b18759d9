// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package provider defines the model-backed capabilities the memory
// service can use: embedding text and extracting structured cells from
// free text. Both are optional; null implementations let the store run
// fully offline with keyword search only.
package provider

import (
	"context"

	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	// Embed returns the embedding for text, or a provider.unavailable
	// error when the backing model cannot be reached.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one call, order-preserving: result i
	// belongs to texts[i].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Available reports whether the embedding backend is reachable.
	Available(ctx context.Context) bool
}

// Extractor distills free text into memory cells and summaries.
type Extractor interface {
	// ExtractCells asks the model to pull discrete memory cells out of
	// text. The model names each cell's scene; fallbackScene is applied
	// to cells it leaves unnamed. A model that returns unusable output
	// yields an empty slice, not an error.
	ExtractCells(ctx context.Context, fallbackScene, text string) ([]*store.Cell, error)

	// Summarize condenses the given cell contents into a short scene
	// summary.
	Summarize(ctx context.Context, scene string, contents []string) (string, error)

	// Available reports whether the extraction backend is reachable.
	Available(ctx context.Context) bool
}

// NullEmbedder is the no-model embedder: never available, every Embed
// fails with a provider.unavailable error callers can degrade on.
type NullEmbedder struct{}

var _ Embedder = (*NullEmbedder)(nil)

func (NullEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, ocerr.New(ocerr.CodeProviderUnavailable, "no embedding provider configured")
}

func (NullEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, ocerr.New(ocerr.CodeProviderUnavailable, "no embedding provider configured")
}

func (NullEmbedder) Available(context.Context) bool { return false }

// NullExtractor is the no-model extractor counterpart to NullEmbedder.
type NullExtractor struct{}

var _ Extractor = (*NullExtractor)(nil)

func (NullExtractor) ExtractCells(context.Context, string, string) ([]*store.Cell, error) {
	return nil, ocerr.New(ocerr.CodeProviderUnavailable, "no extraction provider configured")
}

func (NullExtractor) Summarize(context.Context, string, []string) (string, error) {
	return "", ocerr.New(ocerr.CodeProviderUnavailable, "no extraction provider configured")
}

func (NullExtractor) Available(context.Context) bool { return false }
