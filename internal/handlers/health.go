package handlers

import (
	"errors"
	"net/http"
	"time"

	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/models"

	"github.com/rs/zerolog"
)

// IndexStatus reports on the persisted vector index.
type IndexStatus interface {
	Exists() bool
	Metadata() (chromemdb.Metadata, error)
}

type IndexHealth struct {
	Exists         bool       `json:"exists"`
	Documents      int        `json:"documents"`
	EmbeddingModel string     `json:"embeddingModel,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	OK    bool        `json:"ok"`
	Index IndexHealth `json:"index"`
}

// HealthHandler always answers ok while the process serves requests; a
// missing index is reported, not treated as unhealthy.
type HealthHandler struct {
	index IndexStatus
}

func NewHealthHandler(index IndexStatus) *HealthHandler {
	return &HealthHandler{index: index}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{OK: true}

	if h.index.Exists() {
		meta, err := h.index.Metadata()
		switch {
		case err == nil:
			resp.Index = IndexHealth{
				Exists:         true,
				Documents:      meta.Documents,
				EmbeddingModel: meta.EmbeddingModel,
				UpdatedAt:      &meta.UpdatedAt,
			}
		case errors.Is(err, models.ErrNoIndex):
		default:
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to read index metadata")
			resp.Index.Exists = true
		}
	}

	JSON(w, http.StatusOK, resp)
}
