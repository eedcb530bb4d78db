package vectorstore

import "context"

// Document is a stored text with optional embedding
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// SearchResult pairs a document with its similarity score.
// Scores are normalized to [0,1] where 1.0 means identical; a backend
// that natively returns a distance converts via score = 1 - distance.
type SearchResult struct {
	Document *Document `json:"document"`
	Score    float64   `json:"score"`
}

// Store is the capability interface for vector store backends
type Store interface {
	// AddDocuments stores the batch and returns the stored ids.
	// An empty batch is a no-op success with an empty id list.
	AddDocuments(ctx context.Context, documents []*Document) ([]string, error)
	// Search returns the topK most similar documents, optionally
	// restricted to documents whose metadata matches every filter pair.
	Search(ctx context.Context, queryVector []float32, topK int, filter map[string]any) ([]*SearchResult, error)
	Delete(ctx context.Context, ids []string) error
	// GetByID returns the document, or nil when absent.
	GetByID(ctx context.Context, id string) (*Document, error)
}
