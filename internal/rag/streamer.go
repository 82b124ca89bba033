package rag

import (
	"context"
	"fmt"

	"pdf-rag/internal/models"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

// Streamer sends the grounded prompt to a chat model and passes generated
// tokens through to the caller as they arrive.
type Streamer struct {
	model        llms.Model
	temperature  float64
	systemPrompt string
}

func NewStreamer(model llms.Model, temperature float64) *Streamer {
	return &Streamer{model: model, temperature: temperature, systemPrompt: models.SystemPrompt}
}

// BuildPrompt combines the system instruction, the question and the context
// into the single prompt sent to the model.
func BuildPrompt(system, question, contextText string) string {
	return fmt.Sprintf(models.PromptTemplate, system, question, contextText)
}

// Stream calls onToken for each non-empty fragment in arrival order. It
// returns the context error when ctx is cancelled, the callback's error if
// the callback fails, and a *models.UpstreamError for model failures.
func (s *Streamer) Stream(ctx context.Context, question, contextText string, onToken func(string) error) error {
	prompt := BuildPrompt(s.systemPrompt, question, contextText)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	var (
		tokens      int
		callbackErr error
	)
	_, err := s.model.GenerateContent(ctx, messages,
		llms.WithTemperature(s.temperature),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			if err := onToken(string(chunk)); err != nil {
				callbackErr = err
				return err
			}
			tokens++
			return nil
		}),
	)

	switch {
	case callbackErr != nil:
		return callbackErr
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		return &models.UpstreamError{Service: "chat", Err: err}
	}

	zerolog.Ctx(ctx).Debug().Msgf("streamed %d tokens", tokens)
	return nil
}
