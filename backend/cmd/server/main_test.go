package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aucsafe/backend/internal/chat"
	"aucsafe/backend/internal/llm"
	"aucsafe/backend/internal/rag"
	"aucsafe/backend/internal/vectorstore"
	"aucsafe/backend/pkg/config"
	"aucsafe/backend/pkg/logger"
)

type mockLLM struct {
	response  string
	fragments []string
}

func (m *mockLLM) Generate(ctx context.Context, messages []llm.Message, temperature float32, maxTokens int) (*llm.Response, error) {
	return &llm.Response{Content: m.response}, nil
}

func (m *mockLLM) GenerateStream(ctx context.Context, messages []llm.Message, temperature float32, maxTokens int) (llm.Stream, error) {
	return &mockStream{fragments: m.fragments}, nil
}

type mockStream struct {
	fragments []string
	pos       int
}

func (s *mockStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	fragment := s.fragments[s.pos]
	s.pos++
	return fragment, nil
}

func (s *mockStream) Close() error { return nil }

type mockEmbedder struct{}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimension() int { return 3 }

func testAPI(t *testing.T, client llm.Client, withRAG bool) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var ragRetriever *rag.Retriever
	if withRAG {
		ragRetriever = rag.NewRetriever(&mockEmbedder{}, vectorstore.NewMemoryStore(3), 5, 0.0)
	}

	return &api{
		chat:   chat.NewService(client, ragRetriever, nil, chat.ModeHybrid),
		rag:    ragRetriever,
		cfg:    &config.Config{RetrievalMode: "hybrid", RAGTopK: 5, RAGScoreThreshold: 0.7, GraphMaxDepth: 2, GraphMaxNodes: 10, VectorStoreType: "memory", GraphStoreType: "memory"},
		logger: logger.Get(),
	}
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{}, false))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestCompleteEndpoint(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{response: "근저당권은 담보 물권입니다."}, false))

	w := postJSON(router, "/api/v1/chat/complete", `{"message": "근저당권이 뭔가요"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "근저당권은 담보 물권입니다.", response["content"])
	suggestions, ok := response["suggestions"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(suggestions), 1)
	assert.LessOrEqual(t, len(suggestions), 3)
}

func TestCompleteEndpoint_MissingMessage(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{}, false))

	w := postJSON(router, "/api/v1/chat/complete", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamEndpoint(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{fragments: []string{"근저당권은 ", "담보 물권입니다."}}, false))

	w := postJSON(router, "/api/v1/chat/stream", `{"message": "근저당권이 뭔가요"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `data: {"content":"근저당권은 "}`)
	assert.Contains(t, body, `data: {"content":"담보 물권입니다."}`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}

func TestAnalyzeRegistryEndpoint(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{response: "분석 결과입니다."}, false))

	w := postJSON(router, "/api/v1/chat/analyze-registry", `{"registry_text": "갑구: 소유권 이전", "analysis_type": "risks"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "분석 결과입니다.", response["content"])
}

func TestAnalyzeRegistryEndpoint_MissingText(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{}, false))

	w := postJSON(router, "/api/v1/chat/analyze-registry", `{"analysis_type": "full"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddDocumentsEndpoint(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{}, true))

	w := postJSON(router, "/api/v1/chat/documents/add", `{"documents": [{"id": "doc-1", "content": "근저당권 안내", "metadata": {"title": "권리"}}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	ids, ok := response["ids"].([]interface{})
	require.True(t, ok)
	assert.Len(t, ids, 1)
	assert.Equal(t, "doc-1", ids[0])
}

func TestAddDocumentsEndpoint_RAGNotConfigured(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{}, false))

	w := postJSON(router, "/api/v1/chat/documents/add", `{"documents": [{"content": "내용"}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDocumentsEndpoint(t *testing.T) {
	a := testAPI(t, &mockLLM{}, true)
	router := newRouter(a)

	postJSON(router, "/api/v1/chat/documents/add", `{"documents": [{"id": "doc-1", "content": "근저당권 안내"}]}`)
	w := postJSON(router, "/api/v1/chat/documents/delete", `{"ids": ["doc-1"]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
}

func TestConfigEndpoint(t *testing.T) {
	router := newRouter(testAPI(t, &mockLLM{}, false))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/chat/config", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "hybrid", response["retrieval_mode"])
	assert.Equal(t, float64(5), response["rag_top_k"])
	assert.Equal(t, "memory", response["vector_store"])
}

func TestBuildVectorStore_UnknownType(t *testing.T) {
	_, _, err := buildVectorStore(&config.Config{VectorStoreType: "chroma"})
	assert.Error(t, err)
}

func TestBuildGraphStore_Memory(t *testing.T) {
	graph, cleanup, err := buildGraphStore(context.Background(), &config.Config{GraphStoreType: "memory"})
	require.NoError(t, err)
	assert.Nil(t, cleanup)
	assert.NotNil(t, graph)
}
