package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-rag/internal/handlers"
	apihttp "pdf-rag/internal/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// multipart framing on top of the file bytes themselves
const uploadSlack = 1 << 20

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server exposing ingest, chat streaming, file listing and health endpoints",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := Bootstrap(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	router := apihttp.NewRouter(&apihttp.Deps{
		ChatHandler:    handlers.NewChatHandler(app.Chat, cfg.Server.HeartbeatInterval),
		IngestHandler:  handlers.NewIngestHandler(app.Ingest),
		FilesHandler:   handlers.NewFilesHandler(app.Ingest),
		HealthHandler:  handlers.NewHealthHandler(app.Index),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: int64(cfg.Server.MaxFiles)*cfg.Server.MaxFileBytes + uploadSlack,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage_dir", cfg.Storage.Dir).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
