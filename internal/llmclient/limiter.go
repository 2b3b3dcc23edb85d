package llmclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/formscript/api/schemas"
)

// RateLimitedClient wraps an LLMClient and spaces requests to stay within a
// per-minute budget. Callers block until a slot is free or ctx is done.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimitedClient wraps next. A non-positive requestsPerMinute disables limiting.
func NewRateLimitedClient(next schemas.LLMClient, requestsPerMinute int, logger *zap.Logger) *RateLimitedClient {
	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
		burst = requestsPerMinute
	}
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("llm_limiter"),
	}
}

// Generate waits for a rate limit slot and then delegates to the wrapped client.
func (r *RateLimitedClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait aborted: %w", err)
	}
	r.logger.Debug("Dispatching LLM request", zap.String("tier", string(req.Tier)))
	return r.next.Generate(ctx, req)
}

func (r *RateLimitedClient) Close() error {
	return r.next.Close()
}
