package embedding

import (
	"context"
	"math"

	"github.com/tmc/langchaingo/embeddings"
	"golang.org/x/time/rate"
)

// RateLimitedEmbedder waits on a token bucket before every call to the wrapped embedder.
type RateLimitedEmbedder struct {
	next    embeddings.Embedder
	limiter *rate.Limiter
}

var _ embeddings.Embedder = (*RateLimitedEmbedder)(nil)

// WithRateLimit wraps next so it issues at most rps requests per second.
// A non-positive rps returns next unchanged.
func WithRateLimit(next embeddings.Embedder, rps float64) embeddings.Embedder {
	if rps <= 0 {
		return next
	}
	burst := int(math.Max(1, math.Ceil(rps)))
	return &RateLimitedEmbedder{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (e *RateLimitedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.next.EmbedDocuments(ctx, texts)
}

func (e *RateLimitedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.next.EmbedQuery(ctx, text)
}
