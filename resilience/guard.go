package resilience

import (
	"context"
	"time"

	"github.com/agenthub-x/agenthub/logger"
)

// Guard wraps calls to one live integration with a breaker and retries.
// Retries happen inside a single breaker slot, so one exhausted burst
// counts as one failure.
type Guard struct {
	breaker *CircuitBreaker
	retry   *RetryConfig
}

// NewGuard builds a guard that logs breaker transitions
func NewGuard(name string, log *logger.Logger) *Guard {
	cb := NewCircuitBreaker(name, 3, 30*time.Second)
	if log != nil {
		l := log.WithField("integration", name)
		cb.SetOnStateChange(func(n string, from, to State) {
			l.Warnf("circuit %s: %s -> %s", n, from, to)
		})
	}
	return &Guard{breaker: cb, retry: DefaultRetryConfig()}
}

// WithRetry replaces the retry configuration
func (g *Guard) WithRetry(cfg *RetryConfig) *Guard {
	g.retry = cfg
	return g
}

// Breaker exposes the underlying breaker
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }

// Do runs fn under the breaker with retries
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	return g.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		return RetryWithConfig(ctx, g.retry, func() error { return fn(ctx) })
	})
}
