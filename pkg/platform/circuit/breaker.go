// Package circuit provides a minimal two-state circuit breaker.
package circuit

import "sync"

const (
	defaultFailAfter  = 5
	defaultCloseAfter = 3
)

// StateChange reports a transition caused by the recorded outcome.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker trips after a run of consecutive failures and re-closes after a
// run of consecutive successes. It only decides; callers own the fallback
// behavior and the clock. Safe for concurrent use.
type Breaker struct {
	mu     sync.Mutex
	name   string
	open   bool
	streak int // consecutive failures while closed, successes while open

	failAfter  int
	closeAfter int
}

// Option overrides a Breaker default. Non-positive values are ignored.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures trip the
// circuit. Default 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) { b.failAfter = positive(n, b.failAfter) }
}

// WithSuccessThreshold sets how many consecutive successes re-close it.
// Default 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) { b.closeAfter = positive(n, b.closeAfter) }
}

func positive(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}

// New creates a named breaker; the name only feeds logs and metrics.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{name: name, failAfter: defaultFailAfter, closeAfter: defaultCloseAfter}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Name returns the name given at construction.
func (b *Breaker) Name() string {
	return b.name
}

// IsOpen reports whether callers should skip the primary path.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// RecordFailure notes a failed call. useFallback is true once the circuit
// is open; change.Opened marks the call that tripped it.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	return b.record(false)
}

// RecordSuccess notes a successful call. usePrimary is true once the
// circuit is closed; change.Closed marks the call that re-closed it.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	return b.record(true)
}

// record advances the streak for one outcome. The bool reports whether
// the caller is on the path the current state favors.
func (b *Breaker) record(success bool) (bool, StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Successes while closed and failures while open confirm the state
	// and restart the streak.
	if success != b.open {
		b.streak = 0
		return true, StateChange{}
	}

	b.streak++
	threshold := b.failAfter
	if success {
		threshold = b.closeAfter
	}
	if b.streak < threshold {
		return false, StateChange{}
	}

	b.streak = 0
	b.open = !b.open
	if b.open {
		return true, StateChange{Opened: true}
	}
	return true, StateChange{Closed: true}
}

// Reset force-closes the circuit and clears the streak.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.streak = 0
}
