package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"pdf-rag/internal/models"
	"pdf-rag/internal/service"
	"pdf-rag/internal/telemetry"

	"github.com/rs/zerolog"
)

const (
	filesField = "files"
	// multipart parts beyond this stay on disk until read
	maxMemory = 32 << 20
)

type IngestFileResponse struct {
	Filename string            `json:"filename"`
	Pages    int               `json:"pages"`
	Chunks   int               `json:"chunks"`
	Mode     models.IngestMode `json:"mode"`
}

type IngestResponse struct {
	OK     bool                 `json:"ok"`
	Chunks int                  `json:"chunks"`
	Mode   models.IngestMode    `json:"mode"`
	Files  []IngestFileResponse `json:"files"`
}

// IngestHandler accepts multipart uploads in the files field.
type IngestHandler struct {
	ingestService service.IngestService
}

func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		logger.Warn().Err(err).Msg("invalid multipart upload")
		Error(w, http.StatusBadRequest, "expected multipart form with field \"files\"")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads, err := readUploads(r.MultipartForm.File[filesField])
	if err != nil {
		logger.Error().Err(err).Msg("failed to read uploads")
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ingestService.Ingest(ctx, uploads)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			telemetry.CaptureError(ctx, err)
		}
		logger.Error().Err(err).Int("status", status).Msg("ingest failed")
		Error(w, status, err.Error())
		return
	}

	resp := IngestResponse{
		OK:     true,
		Chunks: result.Chunks,
		Mode:   result.Mode,
		Files:  make([]IngestFileResponse, len(result.Files)),
	}
	for i, f := range result.Files {
		resp.Files[i] = IngestFileResponse{Filename: f.Filename, Pages: f.Pages, Chunks: f.Chunks, Mode: f.Mode}
	}
	JSON(w, http.StatusOK, resp)
}

func readUploads(headers []*multipart.FileHeader) ([]service.Upload, error) {
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}
