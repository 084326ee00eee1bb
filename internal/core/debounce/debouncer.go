// Package debounce collapses bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultDelay = 500 * time.Millisecond

// Debouncer runs fn with the last value passed to Call once delay has passed
// without another Call. Pending work can be cancelled or flushed.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	delay   time.Duration
	fn      func(T)
	timer   clockwork.Timer
	pending T
	armed   bool
	gen     uint64
}

// New returns a debouncer. A nil clock means the real one; a non-positive
// delay means DefaultDelay.
func New[T any](clock clockwork.Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{clock: clock, delay: delay, fn: fn}
}

// Call schedules fn(v), replacing any pending value. It reports whether a
// pending value was superseded.
func (d *Debouncer[T]) Call(v T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	superseded := d.stopLocked()
	d.gen++
	gen := d.gen
	d.pending = v
	d.armed = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
	return superseded
}

// Cancel drops the pending call, if any, and reports whether there was one.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cancelled := d.stopLocked()
	d.gen++
	return cancelled
}

// Flush runs the pending call now instead of waiting for the timer.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	v := d.pending
	d.stopLocked()
	d.gen++
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Pending returns the value waiting to be committed.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.armed
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a timer that lost the race against Call or Cancel finds a newer generation
	if gen != d.gen || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.clearLocked()
	d.mu.Unlock()

	d.fn(v)
}

func (d *Debouncer[T]) stopLocked() bool {
	was := d.armed
	if d.timer != nil {
		d.timer.Stop()
	}
	d.clearLocked()
	return was
}

func (d *Debouncer[T]) clearLocked() {
	var zero T
	d.timer = nil
	d.pending = zero
	d.armed = false
}
