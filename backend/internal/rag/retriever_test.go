package rag

import (
	"context"
	"strings"
	"testing"

	"aucsafe/backend/internal/vectorstore"
)

// mockEmbedder returns fixed vectors per text, defaulting to the query axis
type mockEmbedder struct {
	vectors map[string][]float32
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimension() int { return 3 }

func seededRetriever(t *testing.T, threshold float64) *Retriever {
	t.Helper()
	ctx := context.Background()

	embedder := &mockEmbedder{vectors: map[string][]float32{
		"close":   {0.95, 0.05, 0},
		"mid":     {0.5, 0.5, 0},
		"far":     {0, 1, 0},
		"근저당권 설명": {1, 0, 0},
	}}
	store := vectorstore.NewMemoryStore(3)
	retriever := NewRetriever(embedder, store, 5, threshold)

	_, err := retriever.AddDocuments(ctx, []DocumentInput{
		{ID: "close", Content: "close", Metadata: map[string]any{"title": "가까운 문서"}},
		{ID: "mid", Content: "mid"},
		{ID: "far", Content: "far"},
	})
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	return retriever
}

func TestRetriever_Retrieve_ThresholdFilter(t *testing.T) {
	ctx := context.Background()
	retriever := seededRetriever(t, 0.9)

	result, err := retriever.Retrieve(ctx, "close", nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	for i, doc := range result.Documents {
		if result.Scores[i] < 0.9 {
			t.Errorf("Document %s returned with score %f below threshold", doc.ID, result.Scores[i])
		}
	}
	if len(result.Documents) != 1 || result.Documents[0].ID != "close" {
		t.Errorf("Expected only the close document, got %+v", result.Documents)
	}
}

func TestRetriever_Retrieve_ThresholdMonotonicity(t *testing.T) {
	ctx := context.Background()
	retriever := seededRetriever(t, 0)

	low := 0.1
	high := 0.7

	lowResult, err := retriever.Retrieve(ctx, "close", &RetrieveOptions{ScoreThreshold: &low})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	highResult, err := retriever.Retrieve(ctx, "close", &RetrieveOptions{ScoreThreshold: &high})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	lowIDs := make(map[string]struct{})
	for _, doc := range lowResult.Documents {
		lowIDs[doc.ID] = struct{}{}
	}
	for _, doc := range highResult.Documents {
		if _, ok := lowIDs[doc.ID]; !ok {
			t.Errorf("Higher threshold returned %s absent from lower threshold result", doc.ID)
		}
	}
	if len(highResult.Documents) > len(lowResult.Documents) {
		t.Errorf("Higher threshold returned more documents (%d > %d)", len(highResult.Documents), len(lowResult.Documents))
	}
}

func TestRetriever_Retrieve_ContextFormat(t *testing.T) {
	ctx := context.Background()
	retriever := seededRetriever(t, 0.9)

	result, err := retriever.Retrieve(ctx, "close", nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if !strings.Contains(result.Context, "[문서 1 (title: 가까운 문서)]") {
		t.Errorf("Expected numbered block with metadata, got:\n%s", result.Context)
	}
	if !strings.Contains(result.Context, "close") {
		t.Errorf("Expected document content in context, got:\n%s", result.Context)
	}
}

func TestRetriever_Retrieve_EmptyStore(t *testing.T) {
	ctx := context.Background()
	retriever := NewRetriever(&mockEmbedder{}, vectorstore.NewMemoryStore(3), 5, 0.7)

	result, err := retriever.Retrieve(ctx, "근저당권이 뭔가요", nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if result.Context != "" {
		t.Errorf("Expected empty context for empty store, got %q", result.Context)
	}
	if len(result.Documents) != 0 {
		t.Errorf("Expected no documents, got %d", len(result.Documents))
	}
}

func TestRetriever_AddDocuments_Empty(t *testing.T) {
	ctx := context.Background()
	retriever := NewRetriever(&mockEmbedder{}, vectorstore.NewMemoryStore(3), 5, 0.7)

	ids, err := retriever.AddDocuments(ctx, nil)
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no ids, got %v", ids)
	}
}

func TestRetriever_DeleteDocuments(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore(3)
	retriever := NewRetriever(&mockEmbedder{}, store, 5, 0.7)

	_, err := retriever.AddDocuments(ctx, []DocumentInput{
		{ID: "a", Content: "a"},
		{ID: "b", Content: "b"},
		{ID: "c", Content: "c"},
	})
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	ok, err := retriever.DeleteDocuments(ctx, []string{"a", "b"})
	if err != nil || !ok {
		t.Fatalf("DeleteDocuments failed: ok=%v err=%v", ok, err)
	}

	doc, err := store.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if doc != nil {
		t.Errorf("Expected deleted document absent, got %+v", doc)
	}
}
