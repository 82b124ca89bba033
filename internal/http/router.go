package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatHandler    http.Handler
	IngestHandler  http.Handler
	FilesHandler   http.Handler
	HealthHandler  http.Handler
	AllowedOrigins []string
	// MaxUploadBytes caps the whole ingest request body.
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(Sentry)
	r.Use(CORS(deps.AllowedOrigins))

	r.Method(http.MethodGet, "/health", deps.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/chat", deps.ChatHandler)
		r.Method(http.MethodPost, "/chat", deps.ChatHandler)
		r.With(MaxBodyBytes(deps.MaxUploadBytes)).Method(http.MethodPost, "/ingest", deps.IngestHandler)
		r.Method(http.MethodGet, "/files", deps.FilesHandler)
	})

	return r
}
