package chromemdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pdf-rag/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

// VectorDBManager owns the index persisted in one storage directory. Ingests
// are serialized so load-modify-save cycles in this process never interleave.
type VectorDBManager struct {
	dir            string
	embedder       embeddings.Embedder
	embeddingModel string
	encryptionKey  string

	mu sync.Mutex
}

// NewVectorDBManager initializes a manager for the index stored under dir
func NewVectorDBManager(dir string, embedder embeddings.Embedder, embeddingModel, encryptionKey string) *VectorDBManager {
	return &VectorDBManager{
		dir:            dir,
		embedder:       embedder,
		embeddingModel: embeddingModel,
		encryptionKey:  encryptionKey,
	}
}

func (m *VectorDBManager) Dir() string {
	return m.dir
}

func (m *VectorDBManager) Exists() bool {
	return Exists(m.dir)
}

// Ingest adds chunks to the index, creating it on the first call for this
// directory. A first ingest without chunks still persists an empty index.
func (m *VectorDBManager) Ingest(ctx context.Context, chunks []models.Chunk) (models.IngestMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		ix   *Index
		mode models.IngestMode
		err  error
	)

	if Exists(m.dir) {
		mode = models.IngestModeAppend
		ix, err = Load(m.dir, m.embedder, m.encryptionKey)
		if err != nil {
			return "", err
		}
		if err := ix.Upsert(ctx, chunks); err != nil {
			return "", err
		}
	} else {
		mode = models.IngestModeCreate
		ix, err = CreateFromChunks(ctx, m.embedder, chunks)
		if errors.Is(err, models.ErrEmptyIndex) {
			log.Warn().Msgf("creating empty index in %s", m.dir)
			ix, err = newIndex(m.embedder)
		}
		if err != nil {
			return "", err
		}
	}

	ix.meta.EmbeddingModel = m.embeddingModel
	if err := ix.Save(m.dir, m.encryptionKey); err != nil {
		return "", err
	}

	log.Info().Msgf("indexed %d chunks into %s (%s, %d total)", len(chunks), m.dir, mode, ix.Count())
	return mode, nil
}

// Search loads the current index and queries it. It fails with
// models.ErrNoIndex when nothing has been ingested yet.
func (m *VectorDBManager) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if !Exists(m.dir) {
		return nil, models.ErrNoIndex
	}
	ix, err := Load(m.dir, m.embedder, m.encryptionKey)
	if err != nil {
		return nil, err
	}
	return ix.Search(ctx, query, k)
}

// Metadata reads args.json without loading the document store.
func (m *VectorDBManager) Metadata() (Metadata, error) {
	raw, err := os.ReadFile(filepath.Join(m.dir, models.MetadataFileName))
	if errors.Is(err, os.ErrNotExist) {
		return Metadata{}, models.ErrNoIndex
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return meta, nil
}
