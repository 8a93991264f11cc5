// Package tickclock provides the process tick sources. The ledger reads
// ticks; it never advances them. Wall derives ticks from wall time for
// production, Manual is settable for dev and end-to-end runs.
package tickclock

import (
	"sync/atomic"
	"time"

	"doceo/internal/sentinel"
	id "doceo/pkg/domain"
)

// Wall maps wall time onto ticks: elapsed time since genesis divided by the
// tick interval. Monotonic as long as the host clock is.
type Wall struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

// NewWall creates a wall tick source. A non-positive interval defaults to
// one minute to keep Current well-defined.
func NewWall(genesis time.Time, interval time.Duration) *Wall {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Wall{genesis: genesis, interval: interval, now: time.Now}
}

// Current returns the tick for the current wall time. Times before genesis
// clamp to tick zero.
func (w *Wall) Current() id.Tick {
	elapsed := w.now().Sub(w.genesis)
	if elapsed < 0 {
		return 0
	}
	return id.Tick(elapsed / w.interval)
}

// Manual is a settable tick source. It starts at a fixed tick and only moves
// forward; regressions are rejected so replayed requests cannot unexpire
// credentials.
type Manual struct {
	tick atomic.Uint64
}

// NewManual creates a manual tick source starting at start.
func NewManual(start id.Tick) *Manual {
	m := &Manual{}
	m.tick.Store(uint64(start))
	return m
}

// Current returns the manual tick.
func (m *Manual) Current() id.Tick {
	return id.Tick(m.tick.Load())
}

// Advance moves the clock forward by delta ticks and returns the new value.
func (m *Manual) Advance(delta uint64) id.Tick {
	return id.Tick(m.tick.Add(delta))
}

// Set moves the clock to t. Moving backwards returns ErrInvalidState.
func (m *Manual) Set(t id.Tick) error {
	for {
		cur := m.tick.Load()
		if uint64(t) < cur {
			return sentinel.ErrInvalidState
		}
		if m.tick.CompareAndSwap(cur, uint64(t)) {
			return nil
		}
	}
}
