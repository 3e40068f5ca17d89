// Package breaker provides per-dependency circuit breakers that fail
// fast when a remote collaborator is unhealthy, preventing cascading
// failures across runs.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// State is the circuit state.
type State string

const (
	StateClosed   State = "closed"    // normal operation
	StateOpen     State = "open"      // failing, reject calls
	StateHalfOpen State = "half_open" // probing recovery
)

// ErrOpen is the distinct rejection signal returned while the circuit
// is open. Callers must treat the dependency as unavailable and must
// not retry before the breaker's timeout window elapses.
var ErrOpen = errors.New("circuit open")

// Config holds the breaker thresholds.
type Config struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // half-open successes before closing
	Timeout          time.Duration // open duration before probing
	CallTimeout      time.Duration // per-call bound; a timeout counts as a failure
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		CallTimeout:      10 * time.Second,
	}
}

// Breaker isolates failures of one named dependency. It may be shared
// by many concurrent runs; state mutation is mutex-guarded, but the
// wrapped call itself executes outside the lock so unrelated traffic
// is never serialized behind a slow dependency.
type Breaker struct {
	name string
	cfg  Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	lastStateChange time.Time
}

// New creates a breaker for the named dependency.
func New(name string, cfg Config) *Breaker {
	return &Breaker{
		name:            name,
		cfg:             cfg,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Name returns the dependency name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// allow decides whether a call may proceed. While open, it transitions
// to half-open once the timeout window since the last failure has
// elapsed; otherwise the call is rejected without executing.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailureTime) >= b.cfg.Timeout {
			log.Printf("circuit %q transitioning to half-open", b.name)
			b.state = StateHalfOpen
			b.successCount = 0
			b.lastStateChange = time.Now()
		} else {
			return fmt.Errorf("circuit %q rejecting call: %w", b.name, ErrOpen)
		}
	}
	return nil
}

// recordSuccess updates counters after a successful call.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			log.Printf("circuit %q closing after recovery", b.name)
			b.state = StateClosed
			b.failureCount = 0
			b.lastStateChange = time.Now()
		}
	case StateClosed:
		if b.failureCount > 0 {
			b.failureCount--
		}
	}
}

// recordFailure updates counters after a failed or timed-out call.
func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateHalfOpen:
		log.Printf("circuit %q reopening after half-open failure", b.name)
		b.state = StateOpen
		b.lastStateChange = time.Now()
	case StateClosed:
		if b.failureCount >= b.cfg.FailureThreshold {
			log.Printf("circuit %q opening after %d failures", b.name, b.failureCount)
			b.state = StateOpen
			b.lastStateChange = time.Now()
		}
	}
}

// Do executes fn through the breaker, bounding it by the configured
// call timeout. A rejected call returns ErrOpen without invoking fn; a
// timeout counts as a failure for breaker-state purposes.
func Do[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}

	callCtx := ctx
	if b.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.cfg.CallTimeout)
		defer cancel()
	}

	result, err := fn(callCtx)
	if err != nil {
		b.recordFailure()
		return zero, err
	}
	b.recordSuccess()
	return result, nil
}

// Status is a point-in-time snapshot of a breaker, for health reporting.
type Status struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}

// Status returns the breaker's current snapshot.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Name:            b.name,
		State:           b.state,
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailure:     b.lastFailureTime,
		LastStateChange: b.lastStateChange,
	}
}
