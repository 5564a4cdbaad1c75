package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// separators are tried in priority order when looking for a clean break:
// paragraph break, line break, word break, then a hard character cut.
var separators = []string{"\n\n", "\n", " "}

// Chunker splits text into overlapping, size-bounded segments along natural
// boundaries. Adjacent chunks share the configured overlap so a fact split
// across a boundary stays recoverable in at least one chunk.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk returns the ordered segments of text. Empty or whitespace-only input
// yields nil; callers treat that as a failed extraction, not a no-op.
func (c *Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.breakPoint(text, start, end)
		}

		segment := text[start:end]
		if strings.TrimSpace(segment) != "" {
			chunks = append(chunks, segment)
		}
		if end == len(text) {
			break
		}
		next := runeStart(text, end-c.overlap)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// breakPoint finds the best end for the window [start, limit). Each separator
// is tried in priority order; the cut must leave enough room past the overlap
// for the next window to make progress. When no separator fits, the window is
// cut hard at the size limit, backed off so a multi-byte rune is never split.
func (c *Chunker) breakPoint(text string, start, limit int) int {
	for _, sep := range separators {
		idx := strings.LastIndex(text[start:limit], sep)
		if idx < 0 {
			continue
		}
		end := start + idx + len(sep)
		if end-start > c.overlap {
			return end
		}
	}
	cut := runeStart(text, limit)
	if cut <= start {
		_, n := utf8.DecodeRuneInString(text[start:])
		cut = start + n
	}
	return cut
}

// runeStart backs i off to the nearest rune boundary at or before i, so byte
// cuts into multi-byte text stay valid UTF-8.
func runeStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// Size and Overlap expose the effective configuration.
func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }
