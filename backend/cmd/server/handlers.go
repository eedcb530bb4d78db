package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aucsafe/backend/internal/chat"
	"aucsafe/backend/internal/llm"
	"aucsafe/backend/internal/rag"
	"aucsafe/backend/pkg/config"
)

// api bundles the handler dependencies
type api struct {
	chat   *chat.Service
	rag    *rag.Retriever
	cfg    *config.Config
	logger *zap.Logger
}

// newRouter builds the gin engine with all routes and middleware
func newRouter(a *api) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(a.logger))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	chatGroup := router.Group("/api/v1/chat")
	{
		chatGroup.POST("/complete", a.handleComplete)
		chatGroup.POST("/stream", a.handleStream)
		chatGroup.POST("/analyze-registry", a.handleAnalyzeRegistry)
		chatGroup.POST("/documents/add", a.handleAddDocuments)
		chatGroup.POST("/documents/delete", a.handleDeleteDocuments)
		chatGroup.GET("/config", a.handleConfig)
	}

	return router
}

type historyMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type chatRequest struct {
	Message     string           `json:"message" binding:"required"`
	History     []historyMessage `json:"history"`
	Mode        string           `json:"mode"`
	Temperature float32          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

func (r *chatRequest) toHistory() []llm.Message {
	history := make([]llm.Message, 0, len(r.History))
	for _, h := range r.History {
		history = append(history, llm.Message{Role: h.Role, Content: h.Content})
	}
	return history
}

func (a *api) chatOptions(req *chatRequest) *chat.ChatOptions {
	return &chat.ChatOptions{
		Mode:        chat.ParseMode(req.Mode, a.chat.DefaultMode()),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

func (a *api) handleComplete(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := a.chat.Chat(c.Request.Context(), req.Message, req.toHistory(), a.chatOptions(&req))
	if err != nil {
		a.logger.Error("Chat turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content":     response.Content,
		"suggestions": response.Suggestions,
		"cards":       response.Cards,
		"sources":     response.Context.Sources,
	})
}

// handleStream answers over SSE. Each fragment is sent as
// data: {"content": ...} and the stream terminates with data: [DONE].
func (a *api) handleStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	stream, err := a.chat.ChatStream(ctx, req.Message, req.toHistory(), a.chatOptions(&req))
	if err != nil {
		a.logger.Error("Failed to open chat stream", zap.Error(err))
		writeSSEError(c, "Failed to process message")
		return
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fragment, err := stream.Recv()
		if err == io.EOF {
			writeSSE(c, "[DONE]")
			return
		}
		if err != nil {
			a.logger.Error("Chat stream failed", zap.Error(err))
			writeSSEError(c, "Stream interrupted")
			return
		}

		payload, err := json.Marshal(gin.H{"content": fragment})
		if err != nil {
			continue
		}
		writeSSE(c, string(payload))
	}
}

func writeSSE(c *gin.Context, data string) {
	c.Writer.WriteString("data: " + data + "\n\n")
	c.Writer.Flush()
}

func writeSSEError(c *gin.Context, message string) {
	payload, _ := json.Marshal(gin.H{"error": message})
	writeSSE(c, string(payload))
}

func (a *api) handleAnalyzeRegistry(c *gin.Context) {
	var req struct {
		RegistryText string `json:"registry_text" binding:"required"`
		AnalysisType string `json:"analysis_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := a.chat.AnalyzeRegistry(c.Request.Context(), req.RegistryText, req.AnalysisType)
	if err != nil {
		a.logger.Error("Registry analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze registry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content":     response.Content,
		"suggestions": response.Suggestions,
	})
}

func (a *api) handleAddDocuments(c *gin.Context) {
	if a.rag == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "RAG retrieval is not configured"})
		return
	}

	var req struct {
		Documents []struct {
			ID       string         `json:"id"`
			Content  string         `json:"content" binding:"required"`
			Metadata map[string]any `json:"metadata"`
		} `json:"documents" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inputs := make([]rag.DocumentInput, 0, len(req.Documents))
	for _, doc := range req.Documents {
		inputs = append(inputs, rag.DocumentInput{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
	}

	ids, err := a.rag.AddDocuments(c.Request.Context(), inputs)
	if err != nil {
		a.logger.Error("Failed to add documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ids": ids})
}

func (a *api) handleDeleteDocuments(c *gin.Context) {
	if a.rag == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "RAG retrieval is not configured"})
		return
	}

	var req struct {
		IDs []string `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := a.rag.DeleteDocuments(c.Request.Context(), req.IDs)
	if err != nil {
		a.logger.Error("Failed to delete documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": ok})
}

func (a *api) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"retrieval_mode":      a.cfg.RetrievalMode,
		"rag_top_k":           a.cfg.RAGTopK,
		"rag_score_threshold": a.cfg.RAGScoreThreshold,
		"graph_max_depth":     a.cfg.GraphMaxDepth,
		"graph_max_nodes":     a.cfg.GraphMaxNodes,
		"vector_store":        a.cfg.VectorStoreType,
		"graph_store":         a.cfg.GraphStoreType,
		"embedding_model":     a.cfg.EmbeddingModel,
		"embedding_dimension": a.cfg.EmbeddingDimension,
		"llm_model":           a.cfg.LLMModel,
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
