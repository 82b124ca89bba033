package llmservice

import (
	"testing"

	"pdf-rag/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

func TestNewChatModel(t *testing.T) {
	t.Run("ollama", func(t *testing.T) {
		model, err := NewChatModel(&config.LLMConfig{Provider: config.ProviderOllama, BaseURL: "http://localhost:11434", Model: "mistral:7b-instruct"})
		require.NoError(t, err)
		assert.IsType(t, &ollama.LLM{}, model)
	})

	t.Run("openai", func(t *testing.T) {
		model, err := NewChatModel(&config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", Key: "sk-test"})
		require.NoError(t, err)
		assert.IsType(t, &openai.LLM{}, model)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewChatModel(&config.LLMConfig{Provider: "bedrock"})
		assert.Error(t, err)
	})
}
