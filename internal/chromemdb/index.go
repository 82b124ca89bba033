package chromemdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

const (
	compress = false

	metaFilename   = "filename"
	metaPageNumber = "page_number"
	metaChunkID    = "chunk_id"
)

// Metadata is persisted next to the document store as args.json.
type Metadata struct {
	Collection     string    `json:"collection"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	Dimensions     int       `json:"dimensions"`
	Documents      int       `json:"documents"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Index is an in-memory chromem collection of chunk embeddings that can be
// saved to and loaded from a storage directory.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	meta       Metadata
}

// Exists reports whether dir holds both the metadata and the document store file.
func Exists(dir string) bool {
	for _, name := range []string{models.MetadataFileName, models.DocStoreFileName} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

func newIndex(embedder embeddings.Embedder) (*Index, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(models.CollectionName, nil, embedFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Index{
		db:         db,
		collection: c,
		embedder:   embedder,
		meta:       Metadata{Collection: models.CollectionName},
	}, nil
}

// CreateFromChunks builds a fresh index from an initial batch.
func CreateFromChunks(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, models.ErrEmptyIndex
	}
	ix, err := newIndex(embedder)
	if err != nil {
		return nil, err
	}
	if err := ix.Upsert(ctx, chunks); err != nil {
		return nil, err
	}
	return ix, nil
}

// Load reads a saved index from dir.
func Load(dir string, embedder embeddings.Embedder, encryptionKey string) (*Index, error) {
	if !Exists(dir) {
		return nil, fmt.Errorf("%w: no index in %s", models.ErrIndexLoad, dir)
	}

	raw, err := os.ReadFile(filepath.Join(dir, models.MetadataFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIndexLoad, err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: invalid metadata: %w", models.ErrIndexLoad, err)
	}
	if meta.Collection == "" {
		meta.Collection = models.CollectionName
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(filepath.Join(dir, models.DocStoreFileName), encryptionKey); err != nil {
		return nil, fmt.Errorf("%w: failed to import database: %w", models.ErrIndexLoad, err)
	}
	c, err := db.GetOrCreateCollection(meta.Collection, nil, embedFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create/get collection: %w", models.ErrIndexLoad, err)
	}

	log.Debug().Msgf("loaded index from %s with %d documents", dir, c.Count())
	return &Index{db: db, collection: c, embedder: embedder, meta: meta}, nil
}

// Upsert embeds the chunks and adds them to the collection.
func (ix *Index) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, contents)
	if err != nil {
		return &models.UpstreamError{Service: "embedding", Err: err}
	}
	if len(vectors) != len(chunks) {
		return &models.UpstreamError{
			Service: "embedding",
			Err:     fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks)),
		}
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		docs[i] = chromem.Document{
			ID:      id,
			Content: chunk.Content,
			Metadata: map[string]string{
				metaFilename:   chunk.Filename,
				metaPageNumber: strconv.Itoa(chunk.PageNumber),
				metaChunkID:    strconv.Itoa(chunk.ChunkID),
			},
			Embedding: vectors[i],
		}
	}

	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	ix.meta.Dimensions = len(vectors[0])
	ix.meta.Documents = ix.collection.Count()
	return nil
}

// Save exports the collection and its metadata into dir. Each file is
// replaced by rename, the document store first, so a reader never sees a
// metadata file without its store.
func (ix *Index) Save(dir, encryptionKey string) error {
	if err := helper.CreateFolder(dir); err != nil {
		return err
	}

	storePath := filepath.Join(dir, models.DocStoreFileName)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", models.DocStoreFileName, time.Now().UnixNano()))
	if err := ix.db.ExportToFile(tmpPath, compress, encryptionKey, ix.collection.Name); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to export database: %w", err)
	}
	if err := os.Rename(tmpPath, storePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace document store: %w", err)
	}

	ix.meta.Documents = ix.collection.Count()
	ix.meta.UpdatedAt = time.Now().UTC()
	raw, err := json.MarshalIndent(ix.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := helper.WriteFileAtomic(filepath.Join(dir, models.MetadataFileName), raw); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	log.Debug().Msgf("saved index to %s (%d documents)", dir, ix.meta.Documents)
	return nil
}

// Search returns up to k chunks ranked by descending similarity. An empty
// index yields no results and no error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	count := ix.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	k = min(k, count)

	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &models.UpstreamError{Service: "embedding", Err: err}
	}

	results, err := ix.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	hits := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.ScoredChunk{
			Chunk:      chunkFromMetadata(r.Content, r.Metadata),
			Similarity: r.Similarity,
		})
	}
	return hits, nil
}

func (ix *Index) Count() int {
	return ix.collection.Count()
}

func (ix *Index) Metadata() Metadata {
	return ix.meta
}

func chunkFromMetadata(content string, meta map[string]string) models.Chunk {
	chunk := models.Chunk{Content: content, Filename: meta[metaFilename], PageNumber: 1}
	if chunk.Filename == "" {
		chunk.Filename = "File"
	}
	if n, err := strconv.Atoi(meta[metaPageNumber]); err == nil {
		chunk.PageNumber = n
	}
	if n, err := strconv.Atoi(meta[metaChunkID]); err == nil {
		chunk.ChunkID = n
	}
	return chunk
}

func embedFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if embedder == nil {
			return nil, errors.New("no embedder configured")
		}
		return embedder.EmbedQuery(ctx, text)
	}
}
