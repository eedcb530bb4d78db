package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	apperrors "aucsafe/backend/pkg/errors"
	"aucsafe/backend/pkg/logger"
)

// PgvectorStore is a Postgres-backed vector store using the pgvector
// extension. One store instance maps to one collection table.
type PgvectorStore struct {
	db        *sql.DB
	table     string
	dimension int
	logger    *zap.Logger
}

// NewPgvectorStore connects to Postgres and ensures the collection
// table and vector extension exist
func NewPgvectorStore(postgresURL, collection string, dimension int) (*PgvectorStore, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	s := &PgvectorStore{
		db:        db,
		table:     pq.QuoteIdentifier("documents_" + collection),
		dimension: dimension,
		logger:    logger.Get(),
	}

	if err := s.ensureTable(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *PgvectorStore) ensureTable() error {
	if _, err := s.db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d)
		)`, s.table, s.dimension)
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create collection table: %w", err)
	}

	s.logger.Info("Checked/created collection table", zap.String("table", s.table))
	return nil
}

// Close closes the underlying connection pool
func (s *PgvectorStore) Close() error {
	return s.db.Close()
}

// AddDocuments upserts the batch by id
func (s *PgvectorStore) AddDocuments(ctx context.Context, documents []*Document) ([]string, error) {
	if len(documents) == 0 {
		return []string{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, s.table)

	ids := make([]string, 0, len(documents))
	for _, doc := range documents {
		if len(doc.Embedding) > 0 && len(doc.Embedding) != s.dimension {
			return nil, apperrors.NewDimensionMismatch(s.dimension, len(doc.Embedding))
		}

		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata for %s: %w", doc.ID, err)
		}

		var embeddingValue any
		if len(doc.Embedding) > 0 {
			embeddingValue = pgvector.NewVector(doc.Embedding)
		}

		if _, err := tx.ExecContext(ctx, stmt, doc.ID, doc.Content, metadata, embeddingValue); err != nil {
			return nil, fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
		}
		ids = append(ids, doc.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return ids, nil
}

// Search returns the topK nearest documents by cosine distance.
// pgvector reports a distance, converted here via score = 1 - distance.
func (s *PgvectorStore) Search(ctx context.Context, queryVector []float32, topK int, filter map[string]any) ([]*SearchResult, error) {
	query := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE embedding IS NOT NULL AND metadata @> $2
		ORDER BY embedding <=> $1, id
		LIMIT $3`, s.table)

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filter: %w", err)
	}
	if filter == nil {
		filterJSON = []byte("{}")
	}

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(queryVector), filterJSON, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var (
			doc      Document
			metadata []byte
			score    float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadata, &score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", doc.ID, err)
		}
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		results = append(results, &SearchResult{Document: &doc, Score: score})
	}

	return results, rows.Err()
}

// Delete removes documents by id
func (s *PgvectorStore) Delete(ctx context.Context, ids []string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// GetByID returns the document, or nil when absent
func (s *PgvectorStore) GetByID(ctx context.Context, id string) (*Document, error) {
	query := fmt.Sprintf(`SELECT id, content, metadata FROM %s WHERE id = $1`, s.table)

	var (
		doc      Document
		metadata []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&doc.ID, &doc.Content, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", doc.ID, err)
	}
	return &doc, nil
}
