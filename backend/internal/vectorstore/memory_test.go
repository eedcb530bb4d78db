package vectorstore

import (
	"context"
	"errors"
	"testing"

	apperrors "aucsafe/backend/pkg/errors"
)

func testDocs() []*Document {
	return []*Document{
		{ID: "d1", Content: "근저당권 설명", Metadata: map[string]any{"category": "right"}, Embedding: []float32{1, 0, 0}},
		{ID: "d2", Content: "경매 절차", Metadata: map[string]any{"category": "auction"}, Embedding: []float32{0, 1, 0}},
		{ID: "d3", Content: "권리분석 가이드", Metadata: map[string]any{"category": "right"}, Embedding: []float32{0.9, 0.1, 0}},
	}
}

func TestMemoryStore_AddDocuments_EmptyBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)

	ids, err := store.AddDocuments(ctx, nil)
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty id list, got %v", ids)
	}
}

func TestMemoryStore_AddDocuments_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)

	_, err := store.AddDocuments(ctx, []*Document{
		{ID: "bad", Content: "x", Embedding: []float32{1, 0}},
	})
	var mismatch *apperrors.ErrDimensionMismatch
	if !errors.As(err, &mismatch) {
		t.Errorf("Expected dimension mismatch error, got %v", err)
	}
}

func TestMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)

	if _, err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	results, err := store.Search(ctx, []float32{1, 0, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	// Ordered by similarity, identical document first with score 1
	if results[0].Document.ID != "d1" {
		t.Errorf("Expected d1 first, got %s", results[0].Document.ID)
	}
	if results[0].Score < 0.999 {
		t.Errorf("Expected score ~1 for identical vector, got %f", results[0].Score)
	}

	for _, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("Score %f outside [0,1] for %s", r.Score, r.Document.ID)
		}
	}

	// Descending score order
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("Results not ordered by score: %f > %f", results[i].Score, results[i-1].Score)
		}
	}
}

func TestMemoryStore_Search_TopK(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)

	if _, err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	results, err := store.Search(ctx, []float32{1, 0, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected topK=1 to cap results, got %d", len(results))
	}
}

func TestMemoryStore_Search_MetadataFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)

	if _, err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	results, err := store.Search(ctx, []float32{1, 0, 0}, 10, map[string]any{"category": "right"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 filtered results, got %d", len(results))
	}
	for _, r := range results {
		if r.Document.Metadata["category"] != "right" {
			t.Errorf("Filter leaked document %s", r.Document.ID)
		}
	}
}

func TestMemoryStore_DeleteAndGetByID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)

	// Batch of 3 added, 2 deleted, deleted id comes back absent
	if _, err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	if err := store.Delete(ctx, []string{"d1", "d2"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	doc, err := store.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if doc != nil {
		t.Errorf("Expected deleted document to be absent, got %+v", doc)
	}

	doc, err = store.GetByID(ctx, "d3")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if doc == nil || doc.ID != "d3" {
		t.Errorf("Expected surviving document d3, got %+v", doc)
	}
}
