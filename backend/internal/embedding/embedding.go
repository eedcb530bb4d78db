package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"aucsafe/backend/pkg/logger"
)

// Embedder turns text into fixed-dimension vectors
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// EmbedTexts embeds a batch in one call, order-preserving,
	// one vector per input item.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the configured vector dimension.
	Dimension() int
}

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewOpenAIEmbedder creates an embedding gateway for the given model and dimension
func NewOpenAIEmbedder(baseURL, apiKey, model string, dimensions int) *OpenAIEmbedder {
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL + "/v1"
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: dimensions,
		logger:     logger.Get(),
	}
}

// Dimension returns the configured vector dimension
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimensions
}

// EmbedText generates an embedding for a single text
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for multiple texts in one batched call
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}

	e.logger.Debug("Embeddings generated",
		zap.String("model", e.model),
		zap.Int("count", len(vectors)),
	)

	return vectors, nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for zero-length or mismatched vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
