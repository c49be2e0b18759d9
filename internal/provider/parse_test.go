// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-ueckert/oc-memory/internal/provider"
	"github.com/sam-ueckert/oc-memory/internal/store"
)

func TestParseCells(t *testing.T) {
	raw := `[
		{"scene": "team-process", "content": "team prefers trunk-based development", "cell_type": "preference", "salience": 0.7, "tags": ["process"]},
		{"content": "release is on friday", "cell_type": "task", "salience": 0.5}
	]`

	cells := provider.ParseCells(raw, "sprint-12", "chat")
	require.Len(t, cells, 2)
	assert.Equal(t, "team-process", cells[0].Scene)
	assert.Equal(t, "chat", cells[0].Source)
	assert.Equal(t, store.CellTypePreference, cells[0].CellType)
	assert.InDelta(t, 0.7, cells[0].Salience, 1e-9)
	assert.Equal(t, []string{"process"}, cells[0].Tags)

	// Cells the model leaves unnamed land in the fallback scene.
	assert.Equal(t, "sprint-12", cells[1].Scene)
}

func TestParseCells_SceneFallbacks(t *testing.T) {
	raw := `[
		{"scene": "  ", "content": "blank scene", "cell_type": "fact", "salience": 0.5},
		{"content": "no scene at all", "cell_type": "fact", "salience": 0.5}
	]`

	cells := provider.ParseCells(raw, "", "chat")
	require.Len(t, cells, 2)
	assert.Equal(t, "general", cells[0].Scene)
	assert.Equal(t, "general", cells[1].Scene)
}

func TestParseCells_StripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"content\": \"fenced fact\", \"cell_type\": \"fact\", \"salience\": 0.5}]\n```"

	cells := provider.ParseCells(raw, "s", "chat")
	require.Len(t, cells, 1)
	assert.Equal(t, "fenced fact", cells[0].Content)
}

func TestParseCells_IgnoresSurroundingProse(t *testing.T) {
	raw := `Here are the extracted cells:
[{"content": "buried fact", "cell_type": "fact", "salience": 0.5}]
Hope this helps!`

	cells := provider.ParseCells(raw, "s", "chat")
	require.Len(t, cells, 1)
	assert.Equal(t, "buried fact", cells[0].Content)
}

func TestParseCells_SanitizesFields(t *testing.T) {
	raw := `[
		{"content": "odd type", "cell_type": "opinion", "salience": 0.5},
		{"content": "missing salience", "cell_type": "fact"},
		{"content": "overshoot", "cell_type": "fact", "salience": 3.0},
		{"content": "   ", "cell_type": "fact", "salience": 0.5}
	]`

	cells := provider.ParseCells(raw, "s", "chat")
	require.Len(t, cells, 3)
	assert.Equal(t, store.CellTypeFact, cells[0].CellType)
	assert.InDelta(t, store.DefaultSalience, cells[1].Salience, 1e-9)
	assert.InDelta(t, 1.0, cells[2].Salience, 1e-9)
}

func TestParseCells_MalformedOutput(t *testing.T) {
	for name, raw := range map[string]string{
		"prose only":   "I could not find any memorable facts.",
		"broken json":  `[{"content": "unterminated`,
		"empty string": "",
		"not an array": `{"content": "an object"}`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, provider.ParseCells(raw, "s", "chat"))
		})
	}
}
