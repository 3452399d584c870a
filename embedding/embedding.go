// Package embedding provides the text-to-vector providers used to build
// similarity indexes. Every provider satisfies the sqvect Embedder contract
// and adds a Name so persisted indexes can record which model produced them.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/liliang-cn/sqvect/v2/pkg/sqvect"
	"github.com/va6996/querytools/config"
)

// Embedder turns text into fixed-length vectors
type Embedder interface {
	// Embed converts a single text into a vector
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts texts into vectors, preserving order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dim returns the vector length the provider produces
	Dim() int

	// Name identifies provider and model, e.g. "ollama/nomic-embed-text"
	Name() string
}

// Ensure every Embedder can back a sqvect store
var _ sqvect.Embedder = (Embedder)(nil)

// New builds the provider selected in cfg
func New(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		return NewLocal(cfg.Local.Dim), nil
	case "ollama":
		return NewOllama(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Ollama.Dim), nil
	case "openai":
		o, err := NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Dim)
		if err != nil {
			return nil, err
		}
		return o, nil
	case "gemini":
		g, err := NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Dim)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// checkBatch verifies a provider returned one vector per input
func checkBatch(provider string, want int, vectors [][]float32) error {
	if len(vectors) != want {
		return fmt.Errorf("%s returned %d embeddings for %d inputs", provider, len(vectors), want)
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%s returned an empty embedding for input %d", provider, i)
		}
	}
	return nil
}

// inChunks calls embed on consecutive slices of at most size texts and
// joins the vectors in input order
func inChunks(ctx context.Context, texts []string, size int, embed func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	if size <= 0 || len(texts) <= size {
		return embed(ctx, texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		chunk, err := embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("chunk %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, chunk...)
	}
	return vectors, nil
}
