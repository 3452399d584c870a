package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini embeds through the Gemini API embedding models
type Gemini struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
	dim    int
}

// geminiBatchLimit is the most requests one BatchEmbedContents call accepts
const geminiBatchLimit = 100

// NewGemini creates a Gemini embedder
// Returns an error if the client cannot be initialized
func NewGemini(ctx context.Context, apiKey, model string, dim int) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set for the gemini embedding provider")
	}
	if model == "" {
		model = "text-embedding-004"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.EmbeddingModel(model),
		name:   model,
		dim:    dim,
	}, nil
}

func (g *Gemini) Dim() int {
	return g.dim
}

func (g *Gemini) Name() string {
	return "gemini/" + g.name
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding")
	}
	return res.Embedding.Values, nil
}

func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := inChunks(ctx, texts, geminiBatchLimit, g.embedChunk)
	if err != nil {
		return nil, err
	}
	if err := checkBatch("gemini", len(texts), vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (g *Gemini) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	batch := g.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := g.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed request failed: %w", err)
	}

	vectors := make([][]float32, 0, len(res.Embeddings))
	for _, e := range res.Embeddings {
		if e == nil {
			vectors = append(vectors, nil)
			continue
		}
		vectors = append(vectors, e.Values)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
