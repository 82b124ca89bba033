package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"pdf-rag/internal/events"
	"pdf-rag/internal/service"
	"pdf-rag/internal/telemetry"

	"github.com/rs/zerolog"
)

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatHandler answers a question as a server-sent event stream. GET reads
// the question from the message query parameter, POST from a JSON body.
type ChatHandler struct {
	chatService service.ChatService
	heartbeat   time.Duration
}

func NewChatHandler(chatService service.ChatService, heartbeat time.Duration) *ChatHandler {
	return &ChatHandler{chatService: chatService, heartbeat: heartbeat}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	question, err := readQuestion(r)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid chat request")
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(question) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error().Msg("streaming not supported by response writer")
		Error(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", events.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sw := newStreamWriter(ctx, w, flusher)
	stop := startHeartbeat(ctx, h.heartbeat, sw.Send)
	defer stop()

	err = h.chatService.Ask(ctx, question, sw.Send)
	stop()

	if ctx.Err() != nil {
		logger.Info().Msg("client disconnected, answer stream stopped")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("answer stream failed")
		if StatusFor(err) >= http.StatusInternalServerError {
			telemetry.CaptureError(ctx, err)
		}
		_ = sw.Send(events.Error(StreamMessage(err)))
		return
	}
	_ = sw.Send(events.Done())
}

func readQuestion(r *http.Request) (string, error) {
	switch r.Method {
	case http.MethodGet:
		return r.URL.Query().Get("message"), nil
	case http.MethodPost:
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", err
		}
		return req.Message, nil
	default:
		return "", errors.New("method not allowed")
	}
}
