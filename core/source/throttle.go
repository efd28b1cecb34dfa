package source

import (
	"context"
	"fmt"

	"legacy-mirror/core/mapper"

	"golang.org/x/time/rate"
)

// Throttled limits how often the wrapped source is queried.
// Concurrent table synchronizations share the same limiter.
type Throttled struct {
	next    Source
	limiter *rate.Limiter
}

// NewThrottled wraps next with a token bucket of rps queries per second.
// A non-positive rps disables throttling and returns next unchanged.
func NewThrottled(next Source, rps float64, burst int) Source {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Fetch waits for a token, then delegates.
func (t *Throttled) Fetch(ctx context.Context, q Query) ([]mapper.SourceRecord, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("source rate limit wait for %s: %w", q.Table, err)
	}
	return t.next.Fetch(ctx, q)
}
