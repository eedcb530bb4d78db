package vectorstore

import (
	"context"
	"sort"
	"sync"

	"aucsafe/backend/internal/embedding"
	apperrors "aucsafe/backend/pkg/errors"
)

// MemoryStore is an in-process single-collection vector store
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	documents map[string]*Document
	order     []string // insertion order, for deterministic tiebreaks
}

// NewMemoryStore creates an empty store. A dimension of 0 disables
// the embedding length check.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		documents: make(map[string]*Document),
	}
}

// AddDocuments stores the batch, replacing documents with duplicate ids
func (s *MemoryStore) AddDocuments(ctx context.Context, documents []*Document) ([]string, error) {
	if len(documents) == 0 {
		return []string{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(documents))
	for _, doc := range documents {
		if s.dimension > 0 && len(doc.Embedding) > 0 && len(doc.Embedding) != s.dimension {
			return nil, apperrors.NewDimensionMismatch(s.dimension, len(doc.Embedding))
		}
		if _, exists := s.documents[doc.ID]; !exists {
			s.order = append(s.order, doc.ID)
		}
		s.documents[doc.ID] = doc
		ids = append(ids, doc.ID)
	}

	return ids, nil
}

// Search returns the topK most similar documents by cosine similarity,
// clamped to [0,1]
func (s *MemoryStore) Search(ctx context.Context, queryVector []float32, topK int, filter map[string]any) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*SearchResult
	for _, id := range s.order {
		doc, ok := s.documents[id]
		if !ok || len(doc.Embedding) == 0 {
			continue
		}
		if !matchesFilter(doc, filter) {
			continue
		}

		score := embedding.CosineSimilarity(queryVector, doc.Embedding)
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		results = append(results, &SearchResult{Document: doc, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func matchesFilter(doc *Document, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := doc.Metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Delete removes documents by id; unknown ids are ignored
func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		delete(s.documents, id)
		drop[id] = struct{}{}
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	s.order = kept

	return nil
}

// GetByID returns the document, or nil when absent
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents[id], nil
}
