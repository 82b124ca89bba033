package parser

import (
	"fmt"
	"iter"
	"strings"

	"pdf-rag/internal/models"
)

// boundaries are tried in order when looking for a cut point.
var boundaries = [][]rune{[]rune("\n\n"), []rune(". "), []rune(" ")}

// Chunker splits text into windows of at most Size runes where consecutive
// windows share exactly Overlap runes.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) (Chunker, error) {
	if size <= 0 {
		return Chunker{}, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return Chunker{}, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return Chunker{Size: size, Overlap: overlap}, nil
}

func DefaultChunker() Chunker {
	return Chunker{Size: models.DefaultChunkSize, Overlap: models.DefaultChunkOverlap}
}

// All yields the chunks of text lazily. Empty text yields nothing.
func (c Chunker) All(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(text)
		n := len(runes)
		if n == 0 || c.Size <= 0 {
			return
		}

		start := 0
		for {
			if n-start <= c.Size {
				yield(string(runes[start:]))
				return
			}
			end := c.cut(runes, start)
			if !yield(string(runes[start:end])) {
				return
			}
			start = end - c.Overlap
		}
	}
}

// Split collects All into a slice.
func (c Chunker) Split(text string) []string {
	var chunks []string
	for chunk := range c.All(text) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// cut picks the end of the window starting at start. The end always lies in
// (start+Overlap, start+Size] so the next window makes progress.
func (c Chunker) cut(runes []rune, start int) int {
	limit := start + c.Size
	floor := start + c.Overlap
	for _, sep := range boundaries {
		for end := limit; end-len(sep) >= start && end > floor; end-- {
			if hasSuffixAt(runes, end, sep) {
				return end
			}
		}
	}
	return limit
}

func hasSuffixAt(runes []rune, end int, sep []rune) bool {
	begin := end - len(sep)
	if begin < 0 {
		return false
	}
	for i, r := range sep {
		if runes[begin+i] != r {
			return false
		}
	}
	return true
}

// Rejoin reverses Split: the first chunk in full, then every later chunk
// without its leading overlap.
func Rejoin(chunks []string, overlap int) string {
	var content strings.Builder
	for i, chunk := range chunks {
		if i == 0 {
			content.WriteString(chunk)
			continue
		}
		runes := []rune(chunk)
		if len(runes) > overlap {
			content.WriteString(string(runes[overlap:]))
		}
	}
	return content.String()
}

// ChunkPages windows every page of a document. Chunk ids restart at 1 on each page.
func ChunkPages(filename string, pages []models.PageRecord, c Chunker) []models.Chunk {
	var chunks []models.Chunk
	for _, page := range pages {
		id := 0
		for content := range c.All(page.Text) {
			id++
			chunks = append(chunks, models.Chunk{
				Content:    content,
				Filename:   filename,
				PageNumber: page.PageNumber,
				ChunkID:    id,
			})
		}
	}
	return chunks
}
