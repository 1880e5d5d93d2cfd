// Package resilience provides circuit breaking and backend failover for the
// generative provider layer.
//
// [Breaker] is a three-state circuit breaker (closed → open → half-open).
// [Group] composes multiple backends of one type behind per-entry breakers so
// a failing primary is bypassed in favour of healthy fallbacks. [Client]
// applies a Group to the generative client interface.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("resilience: circuit open")

// State is a breaker's operating mode.
type State int

const (
	// Closed forwards all calls.
	Closed State = iota

	// Open rejects calls with [ErrOpen] until the cooldown elapses.
	Open

	// HalfOpen admits a bounded number of probe calls to test recovery.
	HalfOpen
)

// String returns the state's human-readable name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	defaultTripAfter = 5
	defaultCooldown  = 30 * time.Second
	defaultProbes    = 3
)

// BreakerOption is a functional option for configuring a Breaker.
type BreakerOption func(*Breaker)

// WithTripAfter sets how many consecutive failures open the breaker.
// Default: 5.
func WithTripAfter(n int) BreakerOption {
	return func(b *Breaker) { b.tripAfter = n }
}

// WithCooldown sets how long the breaker stays open before probing.
// Default: 30s.
func WithCooldown(d time.Duration) BreakerOption {
	return func(b *Breaker) { b.cooldown = d }
}

// WithProbes sets how many successful half-open probes close the breaker.
// Default: 3.
func WithProbes(n int) BreakerOption {
	return func(b *Breaker) { b.probes = n }
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	name      string
	tripAfter int
	cooldown  time.Duration
	probes    int

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	probeUsed int
	probeOK   int
}

// NewBreaker creates a closed Breaker. The name appears in log messages only.
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:      name,
		tripAfter: defaultTripAfter,
		cooldown:  defaultCooldown,
		probes:    defaultProbes,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Do runs fn if the breaker admits the call, otherwise returns [ErrOpen]
// without invoking fn.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	callErr := fn(ctx)
	b.settle(probe, callErr == nil)
	return callErr
}

// State returns the breaker's current mode. An open breaker past its cooldown
// reports HalfOpen; the actual transition happens on the next Do.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && time.Since(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

// Reset forces the breaker back to Closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.probeUsed = 0
	b.probeOK = 0
}

// admit decides whether a call may proceed, reporting whether it counts as a
// half-open probe.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if time.Since(b.openedAt) < b.cooldown {
			return false, ErrOpen
		}
		b.state = HalfOpen
		b.probeUsed = 0
		b.probeOK = 0
		slog.Info("circuit probing for recovery", "name", b.name)
	case HalfOpen:
		if b.probeUsed >= b.probes {
			return false, ErrOpen
		}
	}

	if b.state == HalfOpen {
		b.probeUsed++
		return true, nil
	}
	return false, nil
}

// settle records a call outcome.
func (b *Breaker) settle(probe, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case probe && !ok:
		// A failed probe re-opens immediately.
		b.state = Open
		b.openedAt = time.Now()
		b.failures = b.tripAfter
		slog.Warn("circuit re-opened", "name", b.name)
	case probe && ok:
		b.probeOK++
		if b.probeOK >= b.probes {
			b.state = Closed
			b.failures = 0
			slog.Info("circuit closed after recovery", "name", b.name)
		}
	case !ok:
		b.failures++
		b.openedAt = time.Now()
		if b.failures >= b.tripAfter && b.state == Closed {
			b.state = Open
			slog.Warn("circuit opened", "name", b.name, "consecutive_failures", b.failures)
		}
	default:
		b.failures = 0
	}
}
