package service

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_chat_service.go -package=mocks pdf-rag/internal/service ChatService
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_retriever.go -package=mocks pdf-rag/internal/service Retriever

import (
	"context"
	"strings"

	"pdf-rag/internal/events"
	"pdf-rag/internal/models"

	"github.com/rs/zerolog"
)

// Retriever assembles the context for a question.
type Retriever interface {
	Select(ctx context.Context, question string) (models.Retrieval, error)
}

// Generator streams an answer grounded on contextText.
type Generator interface {
	Stream(ctx context.Context, question, contextText string, onToken func(string) error) error
}

// ChatService answers questions from the ingested documents.
type ChatService interface {
	// Ask emits a sources event followed by delta events. Terminal events
	// are left to the transport so that exactly one is written.
	Ask(ctx context.Context, question string, emit func(events.Event) error) error
}

type chatService struct {
	retriever Retriever
	generator Generator
}

func NewChatService(retriever Retriever, generator Generator) ChatService {
	return &chatService{retriever: retriever, generator: generator}
}

func (s *chatService) Ask(ctx context.Context, question string, emit func(events.Event) error) error {
	logger := zerolog.Ctx(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		return &models.ValidationError{Field: "message", Message: "cannot be empty"}
	}

	retrieval, err := s.retriever.Select(ctx, question)
	if err != nil {
		return err
	}
	logger.Info().
		Str("strategy", retrieval.Strategy.String()).
		Bool("fallback", retrieval.Fallback).
		Int("sources", len(retrieval.Sources)).
		Msg("context selected")

	if err := emit(events.Sources(retrieval.Sources)); err != nil {
		return err
	}

	return s.generator.Stream(ctx, question, retrieval.Context, func(token string) error {
		return emit(events.Delta(token))
	})
}
