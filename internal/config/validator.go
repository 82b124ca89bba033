package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a Config.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

func (c *Config) Validate() ValidationErrors {
	var errors ValidationErrors

	if c.Storage.Dir == "" {
		errors = append(errors, ValidationError{Field: "storage.dir", Message: "storage directory is required"})
	}
	if n := len(c.Storage.EncryptionKey); n != 0 && n != 32 {
		errors = append(errors, ValidationError{
			Field:   "storage.encryption_key",
			Message: fmt.Sprintf("encryption key must be 32 bytes, got %d", n),
		})
	}

	errors = append(errors, c.EmbedLLM.validate("embed_llm")...)
	errors = append(errors, c.ChatLLM.validate("chat_llm")...)

	if c.ChatLLM.Temperature < 0 || c.ChatLLM.Temperature > 2 {
		errors = append(errors, ValidationError{Field: "chat_llm.temperature", Message: "temperature must be between 0 and 2"})
	}

	if c.RAG.ChunkSize < 1 {
		errors = append(errors, ValidationError{Field: "rag.chunk_size", Message: "chunk_size must be positive"})
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		errors = append(errors, ValidationError{Field: "rag.chunk_overlap", Message: "chunk_overlap must be at least 0 and smaller than chunk_size"})
	}
	if c.RAG.TopK < 1 {
		errors = append(errors, ValidationError{Field: "rag.top_k", Message: "top_k must be positive"})
	}
	if c.RAG.MaxContextChars < 1 {
		errors = append(errors, ValidationError{Field: "rag.max_context_chars", Message: "max_context_chars must be positive"})
	}

	if c.Server.Port == "" {
		errors = append(errors, ValidationError{Field: "server.port", Message: "port is required"})
	}
	if c.Server.HeartbeatInterval <= 0 {
		errors = append(errors, ValidationError{Field: "server.heartbeat_interval", Message: "heartbeat_interval must be positive"})
	}
	if c.Server.MaxFiles < 1 {
		errors = append(errors, ValidationError{Field: "server.max_files", Message: "max_files must be positive"})
	}
	if c.Server.MaxFileBytes < 1 {
		errors = append(errors, ValidationError{Field: "server.max_file_bytes", Message: "max_file_bytes must be positive"})
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errors = append(errors, ValidationError{Field: "log.format", Message: "format must be console or json"})
	}

	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		errors = append(errors, ValidationError{Field: "sentry.traces_sample_rate", Message: "traces_sample_rate must be between 0 and 1"})
	}

	return errors
}

func (c LLMConfig) validate(prefix string) ValidationErrors {
	var errors ValidationErrors

	switch c.Provider {
	case ProviderOllama:
		if c.BaseURL == "" {
			errors = append(errors, ValidationError{Field: prefix + ".base_url", Message: "Ollama base URL is required"})
		}
	case ProviderOpenAI:
		if c.Key == "" {
			errors = append(errors, ValidationError{Field: prefix + ".api_key", Message: "API key is required for the openai provider"})
		}
	default:
		errors = append(errors, ValidationError{Field: prefix + ".provider", Message: fmt.Sprintf("unknown provider %q", c.Provider)})
	}

	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{Field: prefix + ".base_url", Message: "invalid base URL"})
		}
	}
	if c.Model == "" {
		errors = append(errors, ValidationError{Field: prefix + ".model", Message: "model is required"})
	}
	if c.RateLimit < 0 {
		errors = append(errors, ValidationError{Field: prefix + ".rate_limit", Message: "rate_limit must not be negative"})
	}

	return errors
}
