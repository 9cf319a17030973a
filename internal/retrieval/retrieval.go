// Package retrieval finds the document passages most relevant to a query.
package retrieval

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yunhan0/recall/internal/embed"
	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/log"
	"github.com/yunhan0/recall/internal/vecindex"
)

// Passage is one retrieved chunk with its source document attached, ready
// for prompt assembly.
type Passage struct {
	ChunkID       uuid.UUID `json:"chunkId"`
	DocumentID    uuid.UUID `json:"documentId"`
	DocumentTitle string    `json:"documentTitle"`
	Content       string    `json:"content"`
	Similarity    float64   `json:"similarity"`
}

// Service embeds a query and searches the vector index.
type Service struct {
	embedder *embed.Client
	index    *vecindex.Index
	logger   log.Logger
}

// New creates a retrieval service.
func New(embedder *embed.Client, index *vecindex.Index, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{embedder: embedder, index: index, logger: logger}
}

// Retrieve returns up to topK passages most similar to the query, best
// first. A topK outside [1, 20] is clamped; zero means the default. An empty
// result is not an error: it means the knowledge base has nothing relevant.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fault.Validationf("query must not be empty")
	}

	vector, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	passages := make([]Passage, len(hits))
	for i, h := range hits {
		passages[i] = Passage{
			ChunkID:       h.ChunkID,
			DocumentID:    h.DocumentID,
			DocumentTitle: h.DocumentTitle,
			Content:       h.Content,
			Similarity:    h.Similarity,
		}
	}

	s.logger.Debug("retrieved passages", "query_len", len(query), "passages", len(passages))
	return passages, nil
}
