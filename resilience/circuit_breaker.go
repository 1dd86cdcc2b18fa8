package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the state of CircuitBreaker
type State int

const (
	// StateClosed passes calls through
	StateClosed State = iota
	// StateOpen rejects calls until the reset timeout elapses
	StateOpen
	// StateHalfOpen lets a probe call through
	StateHalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling an integration endpoint after repeated
// failures so the simulated path can answer immediately.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenRequests int

	state            State
	failures         int
	lastFailureTime  time.Time
	halfOpenAttempts int

	now           func() time.Time
	onStateChange func(name string, from, to State)
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		name:             name,
		maxFailures:      maxFailures,
		resetTimeout:     resetTimeout,
		halfOpenRequests: 1,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Name returns the integration the breaker guards
func (cb *CircuitBreaker) Name() string { return cb.name }

// SetOnStateChange sets the callback for state changes. The callback runs
// synchronously and must not call back into the breaker.
func (cb *CircuitBreaker) SetOnStateChange(fn func(name string, from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Execute runs fn if the breaker allows it
func (cb *CircuitBreaker) Execute(fn func() error) error {
	return cb.ExecuteContext(context.Background(), func(context.Context) error { return fn() })
}

// ExecuteContext runs fn if the breaker allows it. Context cancellation is
// not counted as an endpoint failure.
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}
	err := fn(ctx)
	if errors.Is(err, context.Canceled) {
		cb.release()
		return err
	}
	cb.afterCall(err)
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
			cb.changeState(StateHalfOpen)
			cb.halfOpenAttempts = 1
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenAttempts >= cb.halfOpenRequests {
			return ErrTooManyRequests
		}
		cb.halfOpenAttempts++
		return nil
	default:
		return ErrUnknownState
	}
}

func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen && cb.halfOpenAttempts > 0 {
		cb.halfOpenAttempts--
	}
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		if err != nil {
			cb.failures++
			cb.lastFailureTime = cb.now()
			if cb.failures >= cb.maxFailures {
				cb.changeState(StateOpen)
			}
		} else {
			cb.failures = 0
		}
	case StateHalfOpen:
		if err != nil {
			cb.changeState(StateOpen)
			cb.failures = cb.maxFailures
			cb.lastFailureTime = cb.now()
		} else {
			cb.changeState(StateClosed)
			cb.failures = 0
		}
		cb.halfOpenAttempts = 0
	}
}

func (cb *CircuitBreaker) changeState(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetFailures returns the current failure count
func (cb *CircuitBreaker) GetFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the breaker
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.changeState(StateClosed)
	cb.failures = 0
	cb.halfOpenAttempts = 0
}

// Trip opens the breaker
func (cb *CircuitBreaker) Trip() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.changeState(StateOpen)
	cb.lastFailureTime = cb.now()
}

var (
	// ErrCircuitOpen is returned when the circuit is open
	ErrCircuitOpen = errors.New("circuit breaker: circuit is open")

	// ErrTooManyRequests is returned when the half-open probe is already in flight
	ErrTooManyRequests = errors.New("circuit breaker: too many requests in half-open state")

	// ErrUnknownState is returned when the circuit is in an unknown state
	ErrUnknownState = errors.New("circuit breaker: unknown state")
)
