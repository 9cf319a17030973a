// Package vecindex is the vector similarity index over document chunks,
// backed by PostgreSQL with pgvector.
//
// Chunk vectors live in the chunks table; similarity search uses the cosine
// distance operator against an HNSW index. All writes take a querier so the
// ingestion pipeline can run them inside its own transaction.
package vecindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/yunhan0/recall/internal/log"
)

const (
	// DefaultTopK is the result count used when the caller does not specify one.
	DefaultTopK = 5

	// MaxTopK caps a single search so one request cannot drag the whole
	// candidate set across the wire.
	MaxTopK = 20
)

// querier is the subset of pgx operations the index needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so writes can join the caller's transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Entry is one chunk vector to index.
type Entry struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Content    string
	Offset     int
	Vector     []float32
}

// Hit is one similarity search result.
type Hit struct {
	ChunkID       uuid.UUID
	DocumentID    uuid.UUID
	DocumentTitle string
	Content       string
	Offset        int
	Similarity    float64
}

// Index performs vector writes and similarity search over chunks.
//
// Index is safe for concurrent use by multiple goroutines.
type Index struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// New creates an Index on the given connection pool.
func New(pool *pgxpool.Pool, logger log.Logger) *Index {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Index{pool: pool, logger: logger}
}

// InsertTx writes chunk vectors inside the caller's transaction.
func (*Index) InsertTx(ctx context.Context, q querier, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		vec := pgvector.NewVector(e.Vector)
		batch.Queue(
			`INSERT INTO chunks (id, document_id, content, char_offset, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.ChunkID, e.DocumentID, e.Content, e.Offset, vec,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting chunk vectors: %w", err)
		}
	}

	return nil
}

// DeleteByDocumentTx removes every chunk vector of a document inside the
// caller's transaction. Re-ingestion and document deletion both go through
// here so the index never holds vectors for a document that is gone.
func (*Index) DeleteByDocumentTx(ctx context.Context, q querier, documentID uuid.UUID) error {
	if _, err := q.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("deleting chunk vectors for document %s: %w", documentID, err)
	}
	return nil
}

// Search returns the topK chunks nearest to the query vector by cosine
// similarity, most similar first. Equal distances break toward the newer
// document. Only chunks of fully ingested documents are candidates.
func (s *Index) Search(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	topK = ClampTopK(topK)
	vec := pgvector.NewVector(vector)

	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.document_id, d.title, c.content, c.char_offset,
		        1 - (c.embedding <=> $1) AS similarity
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE d.status = 'ready'
		 ORDER BY c.embedding <=> $1, d.created_at DESC
		 LIMIT $2`,
		vec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChunkID, &h.DocumentID, &h.DocumentTitle, &h.Content, &h.Offset, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	s.logger.Debug("vector search", "top_k", topK, "hits", len(hits))
	return hits, nil
}

// Count returns the number of indexed chunks for a document.
func (s *Index) Count(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks for document %s: %w", documentID, err)
	}
	return count, nil
}

// ClampTopK bounds a requested result count to [1, MaxTopK], substituting
// DefaultTopK when the caller passed zero or a negative value.
func ClampTopK(topK int) int {
	switch {
	case topK <= 0:
		return DefaultTopK
	case topK > MaxTopK:
		return MaxTopK
	default:
		return topK
	}
}
