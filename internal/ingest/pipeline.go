// Package ingest turns uploaded study files into searchable documents.
//
// A single ingestion extracts text, splits it into overlapping chunks, embeds
// the chunks, and writes document plus vectors in one transaction, so a
// failure at any stage leaves no partial index state behind. Re-uploading a
// file replaces the previous document's chunks in the same transaction.
//
// Ingestions of the same filename are mutually exclusive; different files
// ingest concurrently.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yunhan0/recall/internal/chunker"
	"github.com/yunhan0/recall/internal/embed"
	"github.com/yunhan0/recall/internal/extract"
	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
	"github.com/yunhan0/recall/internal/vecindex"
)

// Summarizer produces a short summary and category labels for an ingested
// document. Summaries are best effort: a failure is logged and the document
// is ingested without one.
type Summarizer interface {
	SummarizeDocument(ctx context.Context, title, text string) (summary string, categories []string, err error)
}

// Meta carries caller-supplied document metadata. Every field is optional:
// an empty Title falls back to one derived from the filename, and an empty
// Summary lets the model summarize the document instead.
type Meta struct {
	Title      string
	Summary    string
	Categories []string
}

// Pipeline ingests documents end to end.
//
// Pipeline is safe for concurrent use by multiple goroutines.
type Pipeline struct {
	store      *knowledge.Store
	index      *vecindex.Index
	splitter   *chunker.Chunker
	embedder   *embed.Client
	extractor  *extract.Extractor
	summarizer Summarizer
	logger     log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an ingestion pipeline. summarizer may be nil, in which case
// documents are ingested without summaries.
func New(store *knowledge.Store, index *vecindex.Index, splitter *chunker.Chunker,
	embedder *embed.Client, extractor *extract.Extractor, summarizer Summarizer, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		store:      store,
		index:      index,
		splitter:   splitter,
		embedder:   embedder,
		extractor:  extractor,
		summarizer: summarizer,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Ingest processes one uploaded file and returns the stored document.
// Uploading a filename that was ingested before replaces the earlier
// document's content and chunks instead of creating a duplicate.
func (p *Pipeline) Ingest(ctx context.Context, filename string, data []byte) (knowledge.Document, error) {
	return p.IngestWithMeta(ctx, filename, data, Meta{})
}

// IngestWithMeta is Ingest with caller-supplied metadata overrides.
func (p *Pipeline) IngestWithMeta(ctx context.Context, filename string, data []byte, meta Meta) (knowledge.Document, error) {
	if len(data) == 0 {
		return knowledge.Document{}, fault.Validationf("file %q is empty", filename)
	}

	text, err := p.extractor.Text(ctx, filename, data)
	if err != nil {
		return knowledge.Document{}, err
	}

	// The lock must cover the duplicate lookup: two concurrent first-time
	// uploads of one filename would otherwise both miss it and commit
	// separate documents.
	lock := p.lockFor(filename)
	lock.Lock()
	defer lock.Unlock()

	existing, found, err := p.store.FindDocumentByFilename(ctx, filename)
	if err != nil {
		return knowledge.Document{}, err
	}

	docID := uuid.New()
	if found {
		docID = existing.ID
	}

	return p.ingestLocked(ctx, docID, found, filename, text, meta)
}

// ingestLocked runs the chunk/embed/store stages while holding the
// document's ingestion lock.
func (p *Pipeline) ingestLocked(ctx context.Context, docID uuid.UUID, replace bool, filename, text string, meta Meta) (knowledge.Document, error) {
	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return knowledge.Document{}, fault.Validationf("file %q contains no chunkable text", filename)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return knowledge.Document{}, err
	}

	doc := knowledge.Document{
		ID:         docID,
		Title:      strings.TrimSpace(meta.Title),
		Filename:   filename,
		RawContent: text,
	}
	if doc.Title == "" {
		doc.Title = titleFromFilename(filename)
	}

	// Caller-supplied metadata takes the model's place.
	summary, categories := meta.Summary, meta.Categories
	if summary == "" {
		generated, genCategories := p.summarize(ctx, doc.Title, text)
		summary = generated
		if len(categories) == 0 {
			categories = genCategories
		}
	}

	entries := make([]vecindex.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vecindex.Entry{
			ChunkID:    uuid.New(),
			DocumentID: docID,
			Content:    c.Text,
			Offset:     c.Offset,
			Vector:     vectors[i],
		}
	}

	tx, err := p.store.Pool().Begin(ctx)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("beginning ingestion transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if replace {
		if err := p.store.ReplaceDocumentTx(ctx, tx, doc); err != nil {
			return knowledge.Document{}, err
		}
		if err := p.index.DeleteByDocumentTx(ctx, tx, docID); err != nil {
			return knowledge.Document{}, err
		}
	} else {
		if err := p.store.CreateDocumentTx(ctx, tx, doc); err != nil {
			return knowledge.Document{}, err
		}
	}

	if err := p.index.InsertTx(ctx, tx, entries); err != nil {
		return knowledge.Document{}, err
	}

	if err := p.store.MarkDocumentReadyTx(ctx, tx, docID, summary, categories); err != nil {
		return knowledge.Document{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return knowledge.Document{}, fmt.Errorf("committing ingestion: %w", err)
	}

	p.logger.Info("ingested document",
		"id", docID,
		"filename", filename,
		"chunks", len(chunks),
		"replaced", replace,
	)

	return p.store.GetDocument(ctx, docID)
}

// summarize asks the model for a summary and categories. Failures degrade to
// an unsummarized document rather than failing the ingestion.
func (p *Pipeline) summarize(ctx context.Context, title, text string) (string, []string) {
	if p.summarizer == nil {
		return "", nil
	}

	summary, categories, err := p.summarizer.SummarizeDocument(ctx, title, text)
	if err != nil {
		p.logger.Warn("document summarization failed, ingesting without summary",
			"title", title, "error", err)
		return "", nil
	}
	return summary, categories
}

// lockFor returns the ingestion lock for a filename, creating it on first
// use. Locks are never removed; the map grows with the document corpus,
// which is small for a personal knowledge base.
func (p *Pipeline) lockFor(filename string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[filename]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[filename] = lock
	}
	return lock
}

// titleFromFilename derives a display title from an upload's filename by
// stripping the extension and normalizing separators.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}
