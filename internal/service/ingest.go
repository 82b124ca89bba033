package service

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_ingest_service.go -package=mocks pdf-rag/internal/service IngestService
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_indexer.go -package=mocks pdf-rag/internal/service Indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pdf-rag/internal/corpus"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"

	"github.com/rs/zerolog"
)

// Upload is one file of an ingest request.
type Upload struct {
	Filename string
	Data     []byte
}

type FileResult struct {
	Filename string
	Pages    int
	Chunks   int
	Mode     models.IngestMode
}

// IngestResult summarizes a batch. Mode is the mode of the first file, so a
// batch that created the index reports create.
type IngestResult struct {
	Chunks int
	Mode   models.IngestMode
	Files  []FileResult
}

type DocumentSummary struct {
	Filename string
	Pages    int
}

// Indexer adds chunks to the vector index.
type Indexer interface {
	Ingest(ctx context.Context, chunks []models.Chunk) (models.IngestMode, error)
}

// SnapshotStore keeps the raw page text of each document.
type SnapshotStore interface {
	Write(filename string, pages []models.PageRecord) error
	ReadAll() ([]models.CorpusSnapshot, error)
}

// Archiver keeps a copy of each uploaded file.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// IngestService turns uploaded PDFs into snapshots and indexed chunks.
type IngestService interface {
	// Ingest processes uploads in order and stops at the first failing
	// file. Files before it stay ingested.
	Ingest(ctx context.Context, uploads []Upload) (IngestResult, error)
	// Documents lists the stored snapshots.
	Documents(ctx context.Context) ([]DocumentSummary, error)
}

type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
}

type IngestOption func(*ingestService)

// WithArchiver stores every successfully indexed upload. Archive failures
// are logged and do not fail the ingest.
func WithArchiver(a Archiver) IngestOption {
	return func(s *ingestService) { s.archiver = a }
}

func WithChunker(c parser.Chunker) IngestOption {
	return func(s *ingestService) { s.chunker = c }
}

func WithLimits(l Limits) IngestOption {
	return func(s *ingestService) { s.limits = l }
}

type ingestService struct {
	indexer  Indexer
	store    SnapshotStore
	archiver Archiver
	chunker  parser.Chunker
	limits   Limits
}

func NewIngestService(indexer Indexer, store SnapshotStore, opts ...IngestOption) IngestService {
	s := &ingestService{
		indexer: indexer,
		store:   store,
		chunker: parser.DefaultChunker(),
		limits: Limits{
			MaxFiles:     models.DefaultMaxFiles,
			MaxFileBytes: models.DefaultMaxFileBytes,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ingestService) Ingest(ctx context.Context, uploads []Upload) (IngestResult, error) {
	if err := s.validate(uploads); err != nil {
		return IngestResult{}, err
	}

	logger := zerolog.Ctx(ctx)
	result := IngestResult{Files: make([]FileResult, 0, len(uploads))}
	for i, upload := range uploads {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		file, err := s.ingestOne(ctx, upload)
		if err != nil {
			logger.Error().Err(err).Str("filename", upload.Filename).Msg("ingest aborted")
			return result, err
		}
		if i == 0 {
			result.Mode = file.Mode
		}
		result.Chunks += file.Chunks
		result.Files = append(result.Files, file)
	}

	logger.Info().Int("files", len(result.Files)).Int("chunks", result.Chunks).Str("mode", string(result.Mode)).Msg("ingest complete")
	return result, nil
}

func (s *ingestService) validate(uploads []Upload) error {
	if len(uploads) == 0 {
		return &models.ValidationError{Field: "files", Message: "at least one PDF is required"}
	}
	if s.limits.MaxFiles > 0 && len(uploads) > s.limits.MaxFiles {
		return &models.ValidationError{Field: "files", Message: fmt.Sprintf("at most %d files per request", s.limits.MaxFiles)}
	}
	for _, u := range uploads {
		if strings.TrimSpace(u.Filename) == "" {
			return &models.ValidationError{Field: "files", Message: "filename is required"}
		}
		if s.limits.MaxFileBytes > 0 && int64(len(u.Data)) > s.limits.MaxFileBytes {
			return &models.ValidationError{Field: "files", Message: fmt.Sprintf("%s exceeds %d bytes", u.Filename, s.limits.MaxFileBytes)}
		}
		if !parser.IsPDF(u.Data, u.Filename) {
			return &models.ValidationError{Field: "files", Message: fmt.Sprintf("%s is not a PDF", u.Filename)}
		}
	}
	return nil
}

func (s *ingestService) ingestOne(ctx context.Context, upload Upload) (FileResult, error) {
	filename := filepath.Base(upload.Filename)

	pages, err := parser.ExtractPages(upload.Data)
	if err != nil {
		var extractErr *models.ExtractionError
		if errors.As(err, &extractErr) {
			extractErr.Filename = filename
		}
		return FileResult{}, err
	}

	if err := s.store.Write(filename, pages); err != nil {
		return FileResult{}, err
	}

	chunks := parser.ChunkPages(filename, pages, s.chunker)
	mode, err := s.indexer.Ingest(ctx, chunks)
	if err != nil {
		return FileResult{}, err
	}

	if s.archiver != nil {
		key := corpus.SanitizeName(filename)
		if err := s.archiver.Put(ctx, key, upload.Data, "application/pdf"); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("filename", filename).Msg("failed to archive upload")
		}
	}

	return FileResult{Filename: filename, Pages: len(pages), Chunks: len(chunks), Mode: mode}, nil
}

func (s *ingestService) Documents(_ context.Context) ([]DocumentSummary, error) {
	snapshots, err := s.store.ReadAll()
	if err != nil {
		return nil, err
	}
	docs := make([]DocumentSummary, len(snapshots))
	for i, snap := range snapshots {
		docs[i] = DocumentSummary{Filename: snap.Filename, Pages: len(snap.Pages)}
	}
	return docs, nil
}
