package indexer

import (
	"fmt"
	"strings"
)

// Default window parameters, in words.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker splits normalized text into overlapping fixed-size word windows.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. overlap must be smaller than size, otherwise
// the window would never advance.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into windows of at most size words, each starting
// size-overlap words after the previous one. Offsets assume words are
// separated by exactly one space, which Preprocess guarantees.
func (c *Chunker) Chunk(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []Chunk{}
	}

	if len(words) <= c.size {
		return []Chunk{{
			Index:         0,
			ID:            chunkID(0),
			Text:          text,
			StartPosition: 0,
			EndPosition:   len(text),
			WordCount:     len(words),
		}}
	}

	// wordStart[i] is the offset of words[i] in the space-joined text.
	wordStart := make([]int, len(words))
	pos := 0
	for i, w := range words {
		wordStart[i] = pos
		pos += len(w) + 1
	}

	step := c.size - c.overlap
	chunks := make([]Chunk, 0, len(words)/step+1)
	for start := 0; ; start += step {
		end := min(start+c.size, len(words))
		chunkText := strings.Join(words[start:end], " ")
		startPos := wordStart[start]
		chunks = append(chunks, Chunk{
			Index:         len(chunks),
			ID:            chunkID(len(chunks)),
			Text:          chunkText,
			StartPosition: startPos,
			EndPosition:   startPos + len(chunkText),
			WordCount:     end - start,
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}

func chunkID(i int) string {
	return fmt.Sprintf("chunk_%d", i)
}
