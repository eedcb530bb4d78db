package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// LLM
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Embeddings
	EmbeddingModel     string
	EmbeddingDimension int

	// Vector store
	VectorStoreType string // "memory" or "pgvector"
	PostgresURL     string
	CollectionName  string

	// Graph store
	GraphStoreType string // "memory" or "neo4j"
	Neo4jURI       string
	Neo4jUser      string
	Neo4jPassword  string

	// Retrieval
	RetrievalMode     string // "rag", "graph" or "hybrid"
	RAGTopK           int
	RAGScoreThreshold float64
	GraphMaxDepth     int
	GraphMaxNodes     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8001"),
		Env:                getEnv("ENV", "development"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		VectorStoreType:    getEnv("VECTOR_STORE_TYPE", "memory"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		CollectionName:     getEnv("COLLECTION_NAME", "aucsafe"),
		GraphStoreType:     getEnv("GRAPH_STORE_TYPE", "memory"),
		Neo4jURI:           getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", "password"),
		RetrievalMode:      getEnv("RETRIEVAL_MODE", "hybrid"),
		RAGTopK:            getEnvInt("RAG_TOP_K", 5),
		RAGScoreThreshold:  getEnvFloat("RAG_SCORE_THRESHOLD", 0.7),
		GraphMaxDepth:      getEnvInt("GRAPH_MAX_DEPTH", 2),
		GraphMaxNodes:      getEnvInt("GRAPH_MAX_NODES", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
// Unknown backend kinds are rejected here so a bad tag fails at startup,
// never mid-request.
func (c *Config) Validate() error {
	switch c.VectorStoreType {
	case "memory":
	case "pgvector":
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for pgvector store")
		}
	default:
		return fmt.Errorf("unknown VECTOR_STORE_TYPE: %s", c.VectorStoreType)
	}

	switch c.GraphStoreType {
	case "memory":
	case "neo4j":
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required for neo4j store")
		}
	default:
		return fmt.Errorf("unknown GRAPH_STORE_TYPE: %s", c.GraphStoreType)
	}

	switch c.RetrievalMode {
	case "rag", "graph", "hybrid":
	default:
		return fmt.Errorf("unknown RETRIEVAL_MODE: %s", c.RetrievalMode)
	}

	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive")
	}
	if c.RAGScoreThreshold < 0 || c.RAGScoreThreshold > 1 {
		return fmt.Errorf("RAG_SCORE_THRESHOLD must be in [0,1]")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}
