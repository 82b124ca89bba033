package handlers

import (
	"net/http"

	"pdf-rag/internal/service"

	"github.com/rs/zerolog"
)

type FileSummary struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
}

type FilesResponse struct {
	Files []FileSummary `json:"files"`
}

// FilesHandler lists the ingested documents.
type FilesHandler struct {
	ingestService service.IngestService
}

func NewFilesHandler(ingestService service.IngestService) *FilesHandler {
	return &FilesHandler{ingestService: ingestService}
}

func (h *FilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	docs, err := h.ingestService.Documents(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list documents")
		Error(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	resp := FilesResponse{Files: make([]FileSummary, len(docs))}
	for i, d := range docs {
		resp.Files[i] = FileSummary{Filename: d.Filename, Pages: d.Pages}
	}
	JSON(w, http.StatusOK, resp)
}
