package models

// PageRecord is the extracted plain text of one PDF page. Page numbers are 1-based.
type PageRecord struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	Filename   string
	PageNumber int
	ChunkID    int
}

// ScoredChunk is a search hit returned by the vector index.
type ScoredChunk struct {
	Chunk
	Similarity float32
}

// SourceRef identifies a cited page. Unique by (Filename, PageNumber).
type SourceRef struct {
	Filename   string `json:"filename"`
	PageNumber int    `json:"pageNumber"`
}

// CorpusSnapshot is the full page text of one ingested document.
type CorpusSnapshot struct {
	Filename string       `json:"filename"`
	Pages    []PageRecord `json:"pages"`
}

// RetrievalStrategy selects how context is assembled for a question.
type RetrievalStrategy int

const (
	StrategySemantic RetrievalStrategy = iota
	StrategyWholeDocument
)

func (s RetrievalStrategy) String() string {
	switch s {
	case StrategySemantic:
		return "semantic"
	case StrategyWholeDocument:
		return "whole_document"
	default:
		return "unknown"
	}
}

// Retrieval is the context assembled for one question.
type Retrieval struct {
	Context  string
	Sources  []SourceRef
	Strategy RetrievalStrategy
	// Fallback is set when semantic search found nothing and corpus context was used instead.
	Fallback bool
}

// IngestMode reports whether an ingest created the index or appended to it.
type IngestMode string

const (
	IngestModeCreate IngestMode = "create"
	IngestModeAppend IngestMode = "append"
)
