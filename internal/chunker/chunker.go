// Package chunker splits extracted document text into overlapping,
// bounded-size chunks suitable for embedding.
//
// Splitting is deterministic: the same input and parameters always produce
// the same chunk sequence. Re-ingestion and tests rely on this.
package chunker

import (
	"strings"
	"unicode"
)

// Default chunking parameters. Sized for embedding models with a ~2048 token
// limit; overridable through config.
const (
	DefaultMaxChars = 1200
	DefaultOverlap  = 200
)

// Chunk is a bounded contiguous slice of a document's text.
// Offset is the rune position of the chunk in the source text, kept for
// traceability back to the document.
type Chunk struct {
	Text   string
	Offset int
}

// Chunker splits text into overlapping chunks.
type Chunker struct {
	maxChars int
	overlap  int
}

// New creates a Chunker. Non-positive maxChars falls back to DefaultMaxChars;
// an overlap outside [0, maxChars) falls back to DefaultOverlap (or 0 when
// even that would not fit).
func New(maxChars, overlap int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = DefaultOverlap
		if overlap >= maxChars {
			overlap = 0
		}
	}
	return &Chunker{maxChars: maxChars, overlap: overlap}
}

// Split divides text into chunks of at most maxChars runes, with consecutive
// chunks overlapping by the configured overlap to preserve context across
// boundaries.
//
// Only non-empty chunks are produced: pieces that are blank after trimming
// are dropped, and trimming adjusts the recorded offset. Text that already
// fits in a single chunk is returned verbatim at offset 0. Blank input
// yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.maxChars {
		return []Chunk{{Text: text, Offset: 0}}
	}

	step := c.maxChars - c.overlap

	var chunks []Chunk
	for start := 0; start < len(runes); start += step {
		end := start + c.maxChars
		if end > len(runes) {
			end = len(runes)
		}

		if chunk, ok := trimmedChunk(runes, start, end); ok {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// trimmedChunk trims surrounding whitespace from runes[start:end] and adjusts
// the offset to the first kept rune. Returns false when nothing remains.
func trimmedChunk(runes []rune, start, end int) (Chunk, bool) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	if start == end {
		return Chunk{}, false
	}
	return Chunk{Text: string(runes[start:end]), Offset: start}, true
}
