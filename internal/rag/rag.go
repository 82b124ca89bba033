package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"pdf-rag/internal/models"

	"github.com/rs/zerolog"
)

// Index is the vector search the selector reads from.
type Index interface {
	Exists() bool
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
}

// Corpus supplies whole-document page text.
type Corpus interface {
	ReadAll() ([]models.CorpusSnapshot, error)
}

// Selector decides per question between semantic chunk search and whole
// corpus context, and assembles the context string with its citations.
type Selector struct {
	index    Index
	corpus   Corpus
	classify Classifier
	topK     int
	maxChars int
}

type SelectorOption func(*Selector)

func WithClassifier(c Classifier) SelectorOption {
	return func(s *Selector) { s.classify = c }
}

func WithTopK(k int) SelectorOption {
	return func(s *Selector) { s.topK = k }
}

func WithMaxContextChars(n int) SelectorOption {
	return func(s *Selector) { s.maxChars = n }
}

func NewSelector(index Index, corpus Corpus, opts ...SelectorOption) *Selector {
	s := &Selector{
		index:    index,
		corpus:   corpus,
		classify: KeywordClassifier,
		topK:     models.DefaultTopK,
		maxChars: models.DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the context for question. It fails with models.ErrNoIndex
// when nothing has been ingested.
func (s *Selector) Select(ctx context.Context, question string) (models.Retrieval, error) {
	if !s.index.Exists() {
		return models.Retrieval{}, models.ErrNoIndex
	}
	logger := zerolog.Ctx(ctx)

	strategy := s.classify(question)
	if strategy == models.StrategyWholeDocument {
		logger.Debug().Msg("whole document intent, using corpus context")
		return s.corpusRetrieval(strategy, false)
	}

	hits, err := s.index.Search(ctx, question, s.topK)
	if err != nil {
		return models.Retrieval{}, fmt.Errorf("failed to search index: %w", err)
	}
	if len(hits) == 0 {
		logger.Debug().Msg("semantic search returned nothing, falling back to corpus context")
		return s.corpusRetrieval(strategy, true)
	}

	parts := make([]string, len(hits))
	sources := make([]models.SourceRef, len(hits))
	for i, hit := range hits {
		parts[i] = hit.Content
		sources[i] = models.SourceRef{Filename: hit.Filename, PageNumber: hit.PageNumber}
	}

	logger.Debug().Msgf("semantic search returned %d chunks", len(hits))
	return models.Retrieval{
		Context:  strings.Join(parts, models.ContextSeparator),
		Sources:  UniqueSources(sources),
		Strategy: strategy,
	}, nil
}

func (s *Selector) corpusRetrieval(strategy models.RetrievalStrategy, fallback bool) (models.Retrieval, error) {
	text, sources, err := s.corpusContext()
	if err != nil {
		return models.Retrieval{}, err
	}
	return models.Retrieval{Context: text, Sources: sources, Strategy: strategy, Fallback: fallback}, nil
}

// corpusContext concatenates tagged page text across all snapshots until the
// character budget is reached. Pages without text are skipped.
func (s *Selector) corpusContext() (string, []models.SourceRef, error) {
	snapshots, err := s.corpus.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	var (
		b       strings.Builder
		size    int
		sources []models.SourceRef
	)
	for _, snap := range snapshots {
		for _, page := range snap.Pages {
			if page.Text == "" {
				continue
			}
			part := fmt.Sprintf("\n\n[%s p.%d] %s", snap.Filename, page.PageNumber, page.Text)
			b.WriteString(part)
			size += utf8.RuneCountInString(part)
			sources = append(sources, models.SourceRef{Filename: snap.Filename, PageNumber: page.PageNumber})
			if size >= s.maxChars {
				return b.String(), UniqueSources(sources), nil
			}
		}
	}
	return b.String(), UniqueSources(sources), nil
}
