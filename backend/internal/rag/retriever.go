package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"aucsafe/backend/internal/embedding"
	"aucsafe/backend/internal/vectorstore"
	"aucsafe/backend/pkg/logger"
)

// metadataKeys is the whitelist of metadata fields surfaced in context blocks
var metadataKeys = []string{"title", "source", "type", "category"}

// Result is the outcome of a vector-similarity retrieval
type Result struct {
	Documents []*vectorstore.Document
	Scores    []float64
	Query     string
	Context   string
}

// DocumentInput is an ingestion item before embedding
type DocumentInput struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RetrieveOptions overrides the retriever defaults for one call
type RetrieveOptions struct {
	TopK           int
	Filter         map[string]any
	ScoreThreshold *float64
}

// Retriever composes an embedder and a vector store into query-to-context
type Retriever struct {
	embedder       embedding.Embedder
	store          vectorstore.Store
	topK           int
	scoreThreshold float64
	logger         *zap.Logger
}

// NewRetriever creates a RAG retriever with the given defaults
func NewRetriever(embedder embedding.Embedder, store vectorstore.Store, topK int, scoreThreshold float64) *Retriever {
	return &Retriever{
		embedder:       embedder,
		store:          store,
		topK:           topK,
		scoreThreshold: scoreThreshold,
		logger:         logger.Get(),
	}
}

// Retrieve embeds the query once, searches the store and keeps only
// documents at or above the score threshold
func (r *Retriever) Retrieve(ctx context.Context, query string, opts *RetrieveOptions) (*Result, error) {
	topK := r.topK
	threshold := r.scoreThreshold
	var filter map[string]any
	if opts != nil {
		if opts.TopK > 0 {
			topK = opts.TopK
		}
		if opts.ScoreThreshold != nil {
			threshold = *opts.ScoreThreshold
		}
		filter = opts.Filter
	}

	queryVector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchResults, err := r.store.Search(ctx, queryVector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	var (
		documents []*vectorstore.Document
		scores    []float64
	)
	for _, result := range searchResults {
		if result.Score < threshold {
			continue
		}
		documents = append(documents, result.Document)
		scores = append(scores, result.Score)
	}

	r.logger.Debug("RAG retrieval complete",
		zap.String("query", query),
		zap.Int("candidates", len(searchResults)),
		zap.Int("kept", len(documents)),
	)

	return &Result{
		Documents: documents,
		Scores:    scores,
		Query:     query,
		Context:   buildContext(documents),
	}, nil
}

// buildContext renders numbered document blocks with whitelisted metadata
func buildContext(documents []*vectorstore.Document) string {
	if len(documents) == 0 {
		return ""
	}

	parts := make([]string, 0, len(documents))
	for i, doc := range documents {
		var meta []string
		for _, key := range metadataKeys {
			if value, ok := doc.Metadata[key]; ok {
				if s := fmt.Sprintf("%v", value); s != "" {
					meta = append(meta, fmt.Sprintf("%s: %s", key, s))
				}
			}
		}

		header := fmt.Sprintf("[문서 %d]", i+1)
		if len(meta) > 0 {
			header = fmt.Sprintf("[문서 %d (%s)]", i+1, strings.Join(meta, ", "))
		}
		parts = append(parts, header+"\n"+doc.Content)
	}

	return strings.Join(parts, "\n\n")
}

// AddDocuments embeds the batch in one call and stores the result
func (r *Retriever) AddDocuments(ctx context.Context, inputs []DocumentInput) ([]string, error) {
	if len(inputs) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(inputs))
	for i, input := range inputs {
		texts[i] = input.Content
	}

	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	documents := make([]*vectorstore.Document, len(inputs))
	for i, input := range inputs {
		id := input.ID
		if id == "" {
			id = fmt.Sprintf("doc_%d", i)
		}
		metadata := input.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		documents[i] = &vectorstore.Document{
			ID:        id,
			Content:   input.Content,
			Metadata:  metadata,
			Embedding: vectors[i],
		}
	}

	return r.store.AddDocuments(ctx, documents)
}

// DeleteDocuments removes documents from the store, reporting success
func (r *Retriever) DeleteDocuments(ctx context.Context, ids []string) (bool, error) {
	if err := r.store.Delete(ctx, ids); err != nil {
		return false, err
	}
	return true, nil
}
