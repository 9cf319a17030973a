// Package embed wraps a Genkit embedder behind the pipeline's embedding
// contract: batched requests, bounded retry with backoff, rate limiting,
// and vector dimension enforcement.
package embed

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/yunhan0/recall/internal/backoff"
	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/log"
)

// BatchSize is the number of texts sent per EmbedRequest. Batching bounds
// round trips during document ingestion.
const BatchSize = 16

// defaultRateLimit allows short bursts while keeping sustained embedding
// traffic under typical API quotas.
var defaultRateLimit = rate.NewLimiter(rate.Limit(10), 20)

// Client turns text into fixed-dimension vectors.
//
// The dimension is part of deployment configuration and must match the
// vector index schema. A response with a different width means the embedder
// model and the schema disagree, which is a configuration error and is not
// retried.
type Client struct {
	embedder  ai.Embedder
	dimension int
	options   any
	limiter   *rate.Limiter
	retry     backoff.Config
	logger    log.Logger
}

// NewClient creates an embedding client. options is attached to every
// EmbedRequest and is provider specific; nil sends requests without options.
// Gemini embedding models need an output dimensionality option here, since
// their native width is wider than the vector schema.
func NewClient(embedder ai.Embedder, dimension int, options any, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		embedder:  embedder,
		dimension: dimension,
		options:   options,
		limiter:   defaultRateLimit,
		retry:     backoff.DefaultConfig(),
		logger:    logger,
	}
}

// Dimension returns the configured vector width.
func (c *Client) Dimension() int {
	return c.dimension
}

// GeminiOptions asks a Gemini embedding model to truncate its output to
// dimension (Matryoshka representation). gemini-embedding-001 natively emits
// 3072 dimensions, so without this option every response would fail the
// width check against the vector schema.
func GeminiOptions(dimension int) *genai.EmbedContentConfig {
	dim := int32(dimension) // #nosec G115 -- dimension is a small schema constant
	return &genai.EmbedContentConfig{OutputDimensionality: &dim}
}

// Embed returns one vector per input text, in input order.
// Texts are sent in batches of BatchSize; each batch is retried with bounded
// backoff on transient upstream failures and surfaced as a transient error
// once retries are exhausted.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += BatchSize {
		end := min(start+BatchSize, len(texts))

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// EmbedOne embeds a single text, e.g. a search query.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	var resp *ai.EmbedResponse
	err := backoff.Do(ctx, c.retry, c.logger, "embed", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		var embedErr error
		resp, embedErr = c.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs, Options: c.options})
		return embedErr
	})
	if err != nil {
		if backoff.Retryable(err) {
			return nil, fault.Transientf("embedding call failed: %v", err)
		}
		return nil, fmt.Errorf("generating embeddings: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fault.Transientf("embedder returned %d vectors for %d texts",
			len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) != c.dimension {
			// Model/schema disagreement is a deployment error, not a flake.
			return nil, fmt.Errorf("embedder %q returned %d dimensions, expected %d: embedder and vector schema are misconfigured",
				c.embedder.Name(), len(emb.Embedding), c.dimension)
		}
		vectors[i] = emb.Embedding
	}

	return vectors, nil
}
