package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yunhan0/recall/internal/fault"
)

// UpsertEntry inserts an entry, or updates the existing row when another
// entry already holds the same term ignoring case. The unique index on
// lower(term) arbitrates concurrent upserts, so two racing writers for
// "Preload" and "preload" end up with one row.
//
// On update, non-empty incoming fields win and empty ones keep the stored
// value; the original casing of the stored term is preserved.
func (s *Store) UpsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	entry.Term = strings.TrimSpace(entry.Term)
	if entry.Term == "" {
		return Entry{}, fault.Validationf("entry term must not be empty")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Categories == nil {
		entry.Categories = []string{}
	}

	var saved Entry
	err := s.pool.QueryRow(ctx,
		`INSERT INTO entries (id, term, translation, notes, categories, source_document_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT ((lower(term))) DO UPDATE SET
		     translation = CASE WHEN EXCLUDED.translation <> '' THEN EXCLUDED.translation ELSE entries.translation END,
		     notes = CASE WHEN EXCLUDED.notes <> '' THEN EXCLUDED.notes ELSE entries.notes END,
		     categories = CASE WHEN cardinality(EXCLUDED.categories) > 0 THEN EXCLUDED.categories ELSE entries.categories END,
		     source_document_id = COALESCE(EXCLUDED.source_document_id, entries.source_document_id),
		     updated_at = now()
		 RETURNING id, term, translation, notes, categories, source_document_id, created_at, updated_at`,
		entry.ID, entry.Term, entry.Translation, entry.Notes, entry.Categories, entry.SourceDocumentID).
		Scan(&saved.ID, &saved.Term, &saved.Translation, &saved.Notes,
			&saved.Categories, &saved.SourceDocumentID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("upserting entry %q: %w", entry.Term, err)
	}

	s.logger.Debug("upserted entry", "id", saved.ID, "term", saved.Term)
	return saved, nil
}

// GetEntry returns an entry by ID.
func (s *Store) GetEntry(ctx context.Context, id uuid.UUID) (Entry, error) {
	var entry Entry
	err := s.pool.QueryRow(ctx,
		`SELECT id, term, translation, notes, categories, source_document_id, created_at, updated_at
		 FROM entries WHERE id = $1`,
		id).Scan(&entry.ID, &entry.Term, &entry.Translation, &entry.Notes,
		&entry.Categories, &entry.SourceDocumentID, &entry.CreatedAt, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fault.NotFoundf("entry %s not found", id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("fetching entry %s: %w", id, err)
	}
	return entry, nil
}

// ListEntries returns entries, most recently updated first. A non-empty
// search filters to entries whose term, translation, or notes contain it,
// ignoring case.
func (s *Store) ListEntries(ctx context.Context, search string) ([]Entry, error) {
	search = strings.TrimSpace(search)

	var (
		rows pgx.Rows
		err  error
	)
	if search == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, term, translation, notes, categories, source_document_id, created_at, updated_at
			 FROM entries
			 ORDER BY updated_at DESC`)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, term, translation, notes, categories, source_document_id, created_at, updated_at
			 FROM entries
			 WHERE term ILIKE $1 OR translation ILIKE $1 OR notes ILIKE $1
			 ORDER BY updated_at DESC`,
			likePattern(search))
	}
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.Term, &entry.Translation, &entry.Notes,
			&entry.Categories, &entry.SourceDocumentID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entry rows: %w", err)
	}
	return entries, nil
}

// UpdateEntry replaces an entry's editable fields. Renaming a term onto one
// that already exists (ignoring case) under a different entry is a conflict.
func (s *Store) UpdateEntry(ctx context.Context, entry Entry) (Entry, error) {
	entry.Term = strings.TrimSpace(entry.Term)
	if entry.Term == "" {
		return Entry{}, fault.Validationf("entry term must not be empty")
	}
	if entry.Categories == nil {
		entry.Categories = []string{}
	}

	var saved Entry
	err := s.pool.QueryRow(ctx,
		`UPDATE entries
		 SET term = $2, translation = $3, notes = $4, categories = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING id, term, translation, notes, categories, source_document_id, created_at, updated_at`,
		entry.ID, entry.Term, entry.Translation, entry.Notes, entry.Categories).
		Scan(&saved.ID, &saved.Term, &saved.Translation, &saved.Notes,
			&saved.Categories, &saved.SourceDocumentID, &saved.CreatedAt, &saved.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fault.NotFoundf("entry %s not found", entry.ID)
	}
	if isUniqueViolation(err) {
		return Entry{}, fault.Conflictf("an entry for term %q already exists", foldTerm(entry.Term))
	}
	if err != nil {
		return Entry{}, fmt.Errorf("updating entry %s: %w", entry.ID, err)
	}
	return saved, nil
}

// DeleteEntry removes an entry by ID.
func (s *Store) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("entry %s not found", id)
	}
	return nil
}
