package resilience

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time            { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures int) (*CircuitBreaker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker("sokosumi", maxFailures, time.Second)
	cb.now = clk.now
	return cb, clk
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb, _ := newTestBreaker(3)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	}
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb, clk := newTestBreaker(1)
	var transitions []string
	cb.SetOnStateChange(func(name string, from, to State) {
		transitions = append(transitions, name+":"+from.String()+"->"+to.String())
	})

	_ = cb.Execute(func() error { return errors.New("down") })
	require.Equal(t, StateOpen, cb.GetState())

	clk.advance(2 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []string{
		"sokosumi:closed->open",
		"sokosumi:open->half-open",
		"sokosumi:half-open->closed",
	}, transitions)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clk := newTestBreaker(2)
	cb.Trip()
	clk.advance(2 * time.Second)

	_ = cb.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.GetState())
	assert.Equal(t, 2, cb.GetFailures())
}

func TestCanceledCallDoesNotCount(t *testing.T) {
	cb, _ := newTestBreaker(1)
	err := cb.ExecuteContext(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("dial tcp: refused"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"open breaker", ErrCircuitOpen, false},
		{"server error", &StatusError{Endpoint: "/api/jobs", Code: http.StatusBadGateway}, true},
		{"rate limited", &StatusError{Endpoint: "/api/jobs", Code: http.StatusTooManyRequests}, true},
		{"unauthorized", &StatusError{Endpoint: "/api/jobs", Code: http.StatusUnauthorized}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	var calls int32
	cfg := &RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	err := RetryWithConfig(context.Background(), cfg, func() error {
		atomic.AddInt32(&calls, 1)
		return &StatusError{Endpoint: "/status", Code: http.StatusNotFound}
	})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryExhausts(t *testing.T) {
	var calls int32
	cfg := &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
	boom := errors.New("flaky")
	err := RetryWithConfig(context.Background(), cfg, func() error {
		atomic.AddInt32(&calls, 1)
		return boom
	})
	var maxErr ErrMaxRetriesExceeded
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 3, maxErr.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGuardCountsBurstAsOneFailure(t *testing.T) {
	g := NewGuard("hydra", nil).WithRetry(&RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1})
	var calls int32
	err := g.Do(context.Background(), func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("unreachable")
	})
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, g.Breaker().GetFailures())
	assert.Equal(t, StateClosed, g.Breaker().GetState())
}
