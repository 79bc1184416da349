package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimitedLLM struct {
	next    LLMProvider
	limiter *rate.Limiter
}

// WithRateLimit spaces Generate calls to perSec with the given burst.
// perSec <= 0 returns p unchanged.
func WithRateLimit(p LLMProvider, perSec float64, burst int) LLMProvider {
	if perSec <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedLLM{next: p, limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

func (r *rateLimitedLLM) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("llm rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, req)
}
