package testutil

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/tmc/langchaingo/llms"
)

// HashEmbedder is a deterministic bag-of-words embedder. Texts sharing words
// get similar vectors, which is enough to exercise ranking.
type HashEmbedder struct {
	Dims int
	Err  error

	mu    sync.Mutex
	calls int
}

func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}

	dims := e.Dims
	if dims <= 0 {
		dims = 128
	}
	v := make([]float32, dims)
	// a constant component keeps every vector non-zero
	v[0] = 0.1
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[1+int(h.Sum32()%uint32(dims-1))] += 1
	}
	return v, nil
}

func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// ScriptedModel is an llms.Model that streams a fixed list of tokens.
type ScriptedModel struct {
	Tokens []string
	// Err is returned after the tokens have been streamed.
	Err error
	// BlockAfter, when positive, makes the model wait for context
	// cancellation after streaming that many tokens.
	BlockAfter int

	mu          sync.Mutex
	prompts     []string
	temperature float64
}

var _ llms.Model = (*ScriptedModel)(nil)

func (m *ScriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt.String())
	m.temperature = opts.Temperature
	m.mu.Unlock()

	var answer strings.Builder
	for i, token := range m.Tokens {
		if m.BlockAfter > 0 && i == m.BlockAfter {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(token)); err != nil {
				return nil, err
			}
		}
		answer.WriteString(token)
	}
	if m.BlockAfter > 0 && m.BlockAfter >= len(m.Tokens) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: answer.String()}},
	}, nil
}

func (m *ScriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Prompts returns every prompt the model received.
func (m *ScriptedModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *ScriptedModel) Temperature() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.temperature
}

// ErrUpstream is a stand-in failure for model backends.
var ErrUpstream = errors.New("upstream unavailable")
