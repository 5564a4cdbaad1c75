package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	c := New(1000, 200)
	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\n\t  "))
}

func TestChunkSingleSegmentFits(t *testing.T) {
	c := New(1000, 200)
	text := "Vacation days: 20\n\nSick days: 10"

	chunks := c.Chunk(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkTrimsSurroundingWhitespace(t *testing.T) {
	c := New(1000, 200)
	chunks := c.Chunk("\n\n  Vacation days: 20\n\nSick days: 10  \n")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Vacation days: 20\n\nSick days: 10", chunks[0])
}

func TestChunkSizeBound(t *testing.T) {
	c := New(100, 20)
	text := strings.Repeat("All work and no play makes for dull documents. ", 40)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100, "chunk %d exceeds the size bound", i)
		assert.NotEqual(t, "", strings.TrimSpace(chunk))
	}
}

func TestChunkOverlapProperty(t *testing.T) {
	c := New(100, 20)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for i := 0; i < len(chunks)-1; i++ {
		// Each chunk starts with the last overlap characters of its
		// predecessor, so a fact split at the boundary survives in one piece.
		suffix := chunks[i][len(chunks[i])-c.Overlap():]
		assert.True(t, strings.HasPrefix(chunks[i+1], suffix),
			"chunk %d does not begin with the overlap of chunk %d", i+1, i)
	}
}

func TestChunkPrefersParagraphBreaks(t *testing.T) {
	para := strings.Repeat("word ", 12) // ~60 chars
	text := para + "\n\n" + para + "\n\n" + para

	c := New(100, 10)
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	// The first cut should land on the paragraph break, not mid-word.
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
}

func TestChunkHardCutWithoutSeparators(t *testing.T) {
	c := New(50, 10)
	text := strings.Repeat("x", 200)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 50)
	}
	// Windows advance by size minus overlap over unbreakable input.
	assert.Equal(t, strings.Repeat("x", 50), chunks[0])
	assert.Equal(t, chunks[0][50-10:], chunks[1][:10])
}

func TestChunkHardCutKeepsValidUTF8(t *testing.T) {
	c := New(50, 10)
	text := strings.Repeat("日本語のテキスト", 40)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		// Hard cuts and overlap re-entries must land on rune boundaries, or
		// multi-byte text would be embedded and stored as mojibake.
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8: %q", i, chunk)
	}
}

func TestChunkMultiByteOverlapAdvances(t *testing.T) {
	c := New(30, 9)
	text := strings.Repeat("середина", 25)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	total := 0
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk))
		total += len(chunk)
	}
	// Overlapping windows together cover at least the whole input.
	assert.GreaterOrEqual(t, total, len(text))
}

func TestNewClampsBadConfig(t *testing.T) {
	c := New(0, -5)
	assert.Equal(t, 1000, c.Size())
	assert.Equal(t, 0, c.Overlap())

	c = New(100, 100)
	assert.Equal(t, 50, c.Overlap())
}
