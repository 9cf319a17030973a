// Package knowledge is the system of record for study material: ingested
// documents, term entries, and quiz history, all backed by PostgreSQL.
//
// Entry terms are unique ignoring case; the unique index on lower(term)
// makes concurrent upserts of the same term converge on one row. Chunk
// vectors hang off documents with ON DELETE CASCADE, so removing a document
// removes its index entries in the same statement.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yunhan0/recall/internal/log"
)

// querier is the subset of pgx operations the store needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so document writes can join the
// ingestion pipeline's transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store persists documents, entries, and quiz sessions.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// New creates a Store on the given connection pool.
func New(pool *pgxpool.Pool, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// Pool exposes the underlying connection pool for transaction management
// and health probes.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// foldTerm normalizes a term the way the entries_term_folded_idx index does.
func foldTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// likePattern escapes LIKE metacharacters in user-supplied search text and
// wraps it for substring matching.
func likePattern(search string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(search)
	return fmt.Sprintf("%%%s%%", escaped)
}
