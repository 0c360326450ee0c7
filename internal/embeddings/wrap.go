package embeddings

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// WithTimeout bounds every Embed call by d. A non-positive d returns e
// unchanged.
func WithTimeout(e Embedder, d time.Duration) Embedder {
	if d <= 0 {
		return e
	}
	return &timeoutEmbedder{Embedder: e, timeout: d}
}

type timeoutEmbedder struct {
	Embedder
	timeout time.Duration
}

func (t *timeoutEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Embedder.Embed(ctx, texts)
}

// RateLimited wraps e with a token bucket that allows at most rpm Embed
// calls per minute, with a burst of rpm. A non-positive rpm returns e
// unchanged.
func RateLimited(e Embedder, rpm int) Embedder {
	if rpm <= 0 {
		return e
	}
	return &rateLimitedEmbedder{
		Embedder: e,
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}
}

type rateLimitedEmbedder struct {
	Embedder
	limiter *rate.Limiter
}

func (r *rateLimitedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.Embedder.Embed(ctx, texts)
}
