package mutation

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited wraps a Service with a token-bucket request limit. Callers wait for
// a token; a context that ends first fails the call.
type Limited struct {
	next    Service
	limiter *rate.Limiter
}

// NewLimited limits next to rps requests per second with the given burst.
// rps <= 0 returns next unchanged.
func NewLimited(next Service, rps float64, burst int) Service {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Mutate implements Service.
func (l *Limited) Mutate(ctx context.Context, a, b string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for mutation rate limit: %w", err)
	}
	return l.next.Mutate(ctx, a, b)
}
