package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	var seen string
	var logger *zerolog.Logger
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		logger = zerolog.Ctx(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
		assert.NotNil(t, logger)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})
}

func TestResponseRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: w}

	assert.Equal(t, http.StatusOK, rec.statusCode())
	rec.WriteHeader(http.StatusAccepted)
	_, _ = rec.Write([]byte("hello"))
	rec.Flush()

	assert.Equal(t, http.StatusAccepted, rec.statusCode())
	assert.Equal(t, 5, rec.bytes)
	assert.True(t, w.Flushed)

	var _ http.Flusher = rec
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"any origin reflected", nil, "http://localhost:5173", "http://localhost:5173"},
		{"no origin", nil, "", "*"},
		{"listed origin", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com"},
		{"unlisted origin", []string{"https://app.example.com"}, "https://evil.example.com", ""},
		{"wildcard entry", []string{"*"}, "https://other.example.com", "https://other.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			CORS(tt.allowed)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", clientIP(req))
}

func TestHTTPStatusToSpanStatus(t *testing.T) {
	tests := map[int]sentry.SpanStatus{
		http.StatusOK:                    sentry.SpanStatusOK,
		http.StatusBadRequest:            sentry.SpanStatusInvalidArgument,
		http.StatusUnprocessableEntity:   sentry.SpanStatusInvalidArgument,
		http.StatusRequestEntityTooLarge: sentry.SpanStatusResourceExhausted,
		http.StatusBadGateway:            sentry.SpanStatusUnavailable,
		http.StatusInternalServerError:   sentry.SpanStatusInternalError,
	}
	for status, want := range tests {
		assert.Equal(t, want, httpStatusToSpanStatus(status), status)
	}
}
