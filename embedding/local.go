package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultLocalDim = 256

// Local is an offline embedder that hashes character trigrams and whole
// words into a fixed number of buckets. Strings sharing spelling end up
// close under cosine similarity, which is what matching a misspelled or
// abbreviated value against a column's distinct values needs.
type Local struct {
	dim int
}

// NewLocal creates a Local embedder; dim <= 0 selects the default size
func NewLocal(dim int) *Local {
	if dim <= 0 {
		dim = defaultLocalDim
	}
	return &Local{dim: dim}
}

func (l *Local) Dim() int {
	return l.dim
}

func (l *Local) Name() string {
	return fmt.Sprintf("local/trigram-%d", l.dim)
}

func (l *Local) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, l.dim)
	normalized := strings.ToLower(strings.TrimSpace(text))

	for _, word := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		l.add(vec, "w:"+word, 2)
	}

	runes := []rune("  " + normalized + " ")
	for i := 0; i+3 <= len(runes); i++ {
		l.add(vec, string(runes[i:i+3]), 1)
	}

	normalize(vec)
	return vec, nil
}

func (l *Local) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := l.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// add hashes feature into a bucket; a second hash bit picks the sign so
// unrelated features tend to cancel instead of piling up
func (l *Local) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(l.dim))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := float32(math.Sqrt(sum))
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
