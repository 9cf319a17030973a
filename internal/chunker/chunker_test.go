package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	c := New(100, 20)

	chunks := c.Split("a short note about IV push medication")

	require.Len(t, chunks, 1)
	assert.Equal(t, "a short note about IV push medication", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Offset)
}

func TestSplit_BlankInputYieldsNothing(t *testing.T) {
	c := New(100, 20)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestSplit_ChunksRespectMaxSize(t *testing.T) {
	c := New(50, 10)
	text := strings.Repeat("abcde ", 100) // 600 chars

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk.Text)), 50, "chunk %d too long", i)
		assert.NotEmpty(t, strings.TrimSpace(chunk.Text), "chunk %d blank", i)
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	c := New(50, 10)
	// No whitespace so trimming cannot shift offsets.
	text := strings.Repeat("abcdefghij", 20) // 200 chars

	chunks := c.Split(text)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		// Each chunk starts step = max-overlap runes after the previous.
		assert.Equal(t, chunks[i-1].Offset+40, chunks[i].Offset)
	}
}

func TestSplit_OffsetsTraceBackToSource(t *testing.T) {
	c := New(40, 8)
	text := "The cardiovascular system circulates blood. " +
		"Tachycardia is a resting heart rate above one hundred. " +
		"A PICC line is a peripherally inserted central catheter."

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	runes := []rune(text)
	for i, chunk := range chunks {
		chunkRunes := []rune(chunk.Text)
		got := string(runes[chunk.Offset : chunk.Offset+len(chunkRunes)])
		assert.Equal(t, chunk.Text, got, "chunk %d offset does not map back", i)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := New(60, 15)
	text := strings.Repeat("medication administration routes and dosages. ", 30)

	first := c.Split(text)
	second := c.Split(text)

	assert.Equal(t, first, second)
}

func TestSplit_HandlesMultibyteRunes(t *testing.T) {
	c := New(10, 2)
	text := strings.Repeat("靜脈注射", 10) // 40 runes

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk.Text)), 10)
	}
	// Offsets are rune positions.
	runes := []rune(text)
	last := chunks[len(chunks)-1]
	assert.Equal(t, last.Text, string(runes[last.Offset:last.Offset+len([]rune(last.Text))]))
}

func TestNew_DefaultsApplied(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, DefaultMaxChars, c.maxChars)
	assert.Equal(t, DefaultOverlap, c.overlap)

	// Overlap larger than max falls back, clamped so it still fits.
	c = New(100, 500)
	assert.Equal(t, 0, c.overlap)
}
