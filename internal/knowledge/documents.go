package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yunhan0/recall/internal/fault"
)

// CreateDocumentTx inserts a document in pending status inside the caller's
// transaction. The document stays invisible to search until MarkDocumentReadyTx
// flips it.
func (*Store) CreateDocumentTx(ctx context.Context, q querier, doc Document) error {
	_, err := q.Exec(ctx,
		`INSERT INTO documents (id, title, filename, raw_content, status)
		 VALUES ($1, $2, $3, $4, 'pending')`,
		doc.ID, doc.Title, doc.Filename, doc.RawContent)
	if err != nil {
		return fmt.Errorf("inserting document %q: %w", doc.Filename, err)
	}
	return nil
}

// ReplaceDocumentTx overwrites an existing document's content for
// re-ingestion and moves it back to pending inside the caller's transaction.
func (*Store) ReplaceDocumentTx(ctx context.Context, q querier, doc Document) error {
	tag, err := q.Exec(ctx,
		`UPDATE documents
		 SET title = $2, filename = $3, raw_content = $4,
		     summary = '', categories = '{}', status = 'pending'
		 WHERE id = $1`,
		doc.ID, doc.Title, doc.Filename, doc.RawContent)
	if err != nil {
		return fmt.Errorf("replacing document %s: %w", doc.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("document %s not found", doc.ID)
	}
	return nil
}

// MarkDocumentReadyTx records the generated summary and categories and makes
// the document searchable, inside the caller's transaction.
func (*Store) MarkDocumentReadyTx(ctx context.Context, q querier, id uuid.UUID, summary string, categories []string) error {
	if categories == nil {
		categories = []string{}
	}
	tag, err := q.Exec(ctx,
		`UPDATE documents SET summary = $2, categories = $3, status = 'ready' WHERE id = $1`,
		id, summary, categories)
	if err != nil {
		return fmt.Errorf("marking document %s ready: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("document %s not found", id)
	}
	return nil
}

// GetDocument returns a document with its chunk count.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	err := s.pool.QueryRow(ctx,
		`SELECT d.id, d.title, d.filename, d.raw_content, d.summary, d.categories,
		        d.status, d.created_at,
		        (SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		 FROM documents d
		 WHERE d.id = $1`,
		id).Scan(&doc.ID, &doc.Title, &doc.Filename, &doc.RawContent, &doc.Summary,
		&doc.Categories, &doc.Status, &doc.CreatedAt, &doc.ChunkCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, fault.NotFoundf("document %s not found", id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("fetching document %s: %w", id, err)
	}
	return doc, nil
}

// FindDocumentByFilename returns the document previously ingested under
// filename, if any. Ingestion uses this to detect re-uploads.
func (s *Store) FindDocumentByFilename(ctx context.Context, filename string) (Document, bool, error) {
	var doc Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, filename, summary, categories, status, created_at
		 FROM documents
		 WHERE filename = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		filename).Scan(&doc.ID, &doc.Title, &doc.Filename, &doc.Summary,
		&doc.Categories, &doc.Status, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("looking up document by filename %q: %w", filename, err)
	}
	return doc, true, nil
}

// ListDocuments returns one page of documents, newest first, without raw
// content, along with the total document count. A limit of zero or less
// disables paging.
func (s *Store) ListDocuments(ctx context.Context, limit, offset int) ([]Document, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting documents: %w", err)
	}

	query := `SELECT d.id, d.title, d.filename, d.summary, d.categories, d.status, d.created_at,
	                 (SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
	          FROM documents d
	          ORDER BY d.created_at DESC
	          OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Filename, &doc.Summary,
			&doc.Categories, &doc.Status, &doc.CreatedAt, &doc.ChunkCount); err != nil {
			return nil, 0, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading document rows: %w", err)
	}
	return docs, total, nil
}

// DeleteDocument removes a document. Its chunks go with it via ON DELETE
// CASCADE, and entries sourced from it keep their content with the source
// reference nulled out.
func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("document %s not found", id)
	}

	s.logger.Debug("deleted document", "id", id)
	return nil
}
