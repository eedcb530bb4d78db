package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"aucsafe/backend/internal/chat"
	"aucsafe/backend/internal/embedding"
	"aucsafe/backend/internal/graphrag"
	"aucsafe/backend/internal/kg"
	"aucsafe/backend/internal/llm"
	"aucsafe/backend/internal/rag"
	"aucsafe/backend/internal/vectorstore"
	"aucsafe/backend/pkg/config"
	apperrors "aucsafe/backend/pkg/errors"
	"aucsafe/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	ctx := context.Background()

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	mode := chat.ParseMode(cfg.RetrievalMode, chat.ModeHybrid)

	var ragRetriever *rag.Retriever
	if mode == chat.ModeRAG || mode == chat.ModeHybrid {
		store, cleanup, err := buildVectorStore(cfg)
		if err != nil {
			log.Fatal("Failed to create vector store", zap.Error(err))
		}
		if cleanup != nil {
			defer cleanup()
		}
		embedder := embedding.NewOpenAIEmbedder(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)
		ragRetriever = rag.NewRetriever(embedder, store, cfg.RAGTopK, cfg.RAGScoreThreshold)
		log.Info("RAG retrieval enabled", zap.String("store", cfg.VectorStoreType))
	}

	var graphRetriever *graphrag.Retriever
	if mode == chat.ModeGraph || mode == chat.ModeHybrid {
		graph, cleanup, err := buildGraphStore(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to create graph store", zap.Error(err))
		}
		if cleanup != nil {
			defer cleanup()
		}
		graphRetriever = graphrag.NewRetriever(graph, llmClient, cfg.GraphMaxDepth, cfg.GraphMaxNodes)
		log.Info("Graph retrieval enabled", zap.String("store", cfg.GraphStoreType))
	}

	chatService := chat.NewService(llmClient, ragRetriever, graphRetriever, mode)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(&api{
		chat:   chatService,
		rag:    ragRetriever,
		cfg:    cfg,
		logger: log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("retrieval_mode", string(mode)),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// buildVectorStore creates the configured vector store backend.
// The returned cleanup func is nil for backends without resources.
func buildVectorStore(cfg *config.Config) (vectorstore.Store, func(), error) {
	switch cfg.VectorStoreType {
	case "memory":
		return vectorstore.NewMemoryStore(cfg.EmbeddingDimension), nil, nil
	case "pgvector":
		store, err := vectorstore.NewPgvectorStore(cfg.PostgresURL, cfg.CollectionName, cfg.EmbeddingDimension)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, apperrors.NewUnknownStore(cfg.VectorStoreType)
	}
}

// buildGraphStore creates the configured knowledge graph backend
func buildGraphStore(ctx context.Context, cfg *config.Config) (kg.KnowledgeGraph, func(), error) {
	switch cfg.GraphStoreType {
	case "memory":
		return kg.NewMemoryGraph(), nil, nil
	case "neo4j":
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			_ = driver.Close(ctx)
			return nil, nil, err
		}
		cleanup := func() { _ = driver.Close(context.Background()) }
		return kg.NewNeo4jGraph(driver), cleanup, nil
	default:
		return nil, nil, apperrors.NewUnknownGraph(cfg.GraphStoreType)
	}
}
