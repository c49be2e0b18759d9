// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package ollama implements the provider interfaces against a local
// Ollama daemon: one model for embeddings, one for extraction and
// summarization.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/sam-ueckert/oc-memory/internal/provider"
	"github.com/sam-ueckert/oc-memory/internal/store"
	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

const (
	embedTimeout    = 30 * time.Second
	generateTimeout = 120 * time.Second
	probeTimeout    = 5 * time.Second
)

// Client talks to one Ollama daemon. Safe for concurrent use.
type Client struct {
	api          *api.Client
	embedModel   string
	extractModel string
}

var (
	_ provider.Embedder  = (*Client)(nil)
	_ provider.Extractor = (*Client)(nil)
)

// New builds a client for the daemon at baseURL.
func New(baseURL, embedModel, extractModel string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, ocerr.Errorf(ocerr.CodeConfigValidateInvalidValue, "parsing ollama url %q: %w", baseURL, err)
	}

	return &Client{
		api:          api.NewClient(u, http.DefaultClient),
		embedModel:   embedModel,
		extractModel: extractModel,
	}, nil
}

// Available probes the daemon's model list with a short deadline.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := c.api.List(ctx)
	return err == nil
}

// Embed returns the embedding for text using the configured embed model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.embedModel,
		Input: text,
	})
	if err != nil {
		return nil, ocerr.Wrapf(err, ocerr.CodeProviderUnavailable, "embedding with %s", c.embedModel)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, ocerr.Errorf(ocerr.CodeProviderResponseInvalid, "model %s returned no embedding", c.embedModel)
	}
	return resp.Embeddings[0], nil
}

// EmbedBatch embeds texts in one request; the daemon preserves input
// order in its response.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.embedModel,
		Input: texts,
	})
	if err != nil {
		return nil, ocerr.Wrapf(err, ocerr.CodeProviderUnavailable, "batch embedding with %s", c.embedModel)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, ocerr.Errorf(ocerr.CodeProviderResponseInvalid,
			"model %s returned %d embeddings for %d inputs", c.embedModel, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// ExtractCells prompts the extract model to distill text into memory
// cells, each assigned to a scene the model names. Unusable model
// output yields zero cells, not an error; only a transport failure is
// reported.
func (c *Client) ExtractCells(ctx context.Context, fallbackScene, text string) ([]*store.Cell, error) {
	raw, err := c.generate(ctx, extractPrompt(text), 0.1, 2000)
	if err != nil {
		return nil, err
	}
	return provider.ParseCells(raw, fallbackScene, "extracted"), nil
}

// Summarize condenses cell contents into a short scene summary.
func (c *Client) Summarize(ctx context.Context, scene string, contents []string) (string, error) {
	raw, err := c.generate(ctx, summaryPrompt(scene, contents), 0.05, 200)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", ocerr.Errorf(ocerr.CodeProviderResponseInvalid, "model %s returned an empty summary", c.extractModel)
	}
	return summary, nil
}

// generate runs a single non-streaming completion on the extract model.
func (c *Client) generate(ctx context.Context, prompt string, temperature float64, numPredict int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	stream := false
	req := &api.GenerateRequest{
		Model:  c.extractModel,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": temperature,
			"num_predict": numPredict,
		},
	}

	var out strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", ocerr.Wrapf(err, ocerr.CodeProviderUnavailable, "generating with %s", c.extractModel)
	}
	return out.String(), nil
}

func extractPrompt(text string) string {
	return `Extract discrete memory cells from the text below. Respond with ONLY a JSON array, no other text. Each element:
{"scene": "short-topic-slug", "content": "one self-contained fact", "cell_type": "fact|decision|preference|task|risk|plan|lesson", "salience": 0.0-1.0, "tags": ["lowercase", "keywords"]}

Rules:
- scene is a short lowercase slug naming the topic the cell belongs to (e.g. "project-alpha", "team-process"); group related cells under the same scene.
- Each cell must stand alone without the surrounding text.
- salience reflects long-term importance: routine detail ~0.3, notable ~0.5, critical decision or risk ~0.8+.
- Skip filler, greetings, and anything with no future value.

Text:
` + text
}

func summaryPrompt(scene string, contents []string) string {
	return `Summarize these related memory notes into 2-3 plain sentences. Respond with only the summary, no preamble.

Topic: ` + scene + `

Notes:
- ` + strings.Join(contents, "\n- ")
}
