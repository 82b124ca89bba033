package cli

import (
	"context"
	"fmt"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/config"
	"pdf-rag/internal/corpus"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/logging"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/service"
	"pdf-rag/internal/storage"
	"pdf-rag/internal/telemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// App is the fully wired in-process application.
type App struct {
	Config *config.Config
	Index  *chromemdb.VectorDBManager
	Chat   service.ChatService
	Ingest service.IngestService

	flush func()
}

// Close flushes buffered telemetry.
func (a *App) Close() {
	if a.flush != nil {
		a.flush()
	}
}

// loadConfig reads the config file named by --config and applies the
// persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(flagConfig)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if port, _ := cmd.Flags().GetString(flagPort); port != "" {
		cfg.Server.Port = port
	}
	if dir, _ := cmd.Flags().GetString(flagStorageDir); dir != "" {
		cfg.Storage.Dir = dir
	}

	logging.Setup(cfg.Log)
	log.Debug().Str("storage_dir", cfg.Storage.Dir).Str("chat_model", cfg.ChatLLM.Model).
		Str("embed_model", cfg.EmbedLLM.Model).Msg("Loaded config")
	return cfg, nil
}

// Bootstrap builds the services described by cfg.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	flush, err := telemetry.Init(cfg.Sentry)
	if err != nil {
		log.Warn().Err(err).Msg("Sentry init failed, continuing without it")
		flush = nil
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	model, err := llmservice.NewChatModel(&cfg.ChatLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	chunker, err := parser.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}

	index := chromemdb.NewVectorDBManager(cfg.Storage.Dir, embedder, cfg.EmbedLLM.Model, cfg.Storage.EncryptionKey)
	store := corpus.NewStore(cfg.Storage.Dir)

	selector := rag.NewSelector(index, store,
		rag.WithTopK(cfg.RAG.TopK),
		rag.WithMaxContextChars(cfg.RAG.MaxContextChars),
	)
	streamer := rag.NewStreamer(model, cfg.ChatLLM.Temperature)

	opts := []service.IngestOption{
		service.WithChunker(chunker),
		service.WithLimits(service.Limits{
			MaxFiles:     cfg.Server.MaxFiles,
			MaxFileBytes: cfg.Server.MaxFileBytes,
		}),
	}

	if cfg.S3.Enabled() {
		archive, err := storage.NewS3Archive(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("S3 archive ready")
		opts = append(opts, service.WithArchiver(archive))
	}

	return &App{
		Config: cfg,
		Index:  index,
		Chat:   service.NewChatService(selector, streamer),
		Ingest: service.NewIngestService(index, store, opts...),
		flush:  flush,
	}, nil
}
