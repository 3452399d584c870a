package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI embeds through the OpenAI embeddings API or any server that
// speaks it (set baseURL)
type OpenAI struct {
	client    openai.Client
	model     string
	dim       int
	batchSize int
}

// openAIBatchLimit is the most inputs one embeddings request accepts
const openAIBatchLimit = 2048

// NewOpenAI creates an OpenAI embedder. An API key is required unless a
// custom baseURL points at a server that does not check one.
func NewOpenAI(apiKey, baseURL, model string, dim int) (*OpenAI, error) {
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set for the openai embedding provider")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     model,
		dim:       dim,
		batchSize: openAIBatchLimit,
	}, nil
}

func (o *OpenAI) Dim() int {
	return o.dim
}

func (o *OpenAI) Name() string {
	return "openai/" + o.model
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := inChunks(ctx, texts, o.batchSize, o.embedChunk)
	if err != nil {
		return nil, err
	}
	if err := checkBatch("openai", len(texts), vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (o *OpenAI) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: o.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}

	// Data carries its own index; do not assume response order
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("openai returned embedding for unknown input %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}
