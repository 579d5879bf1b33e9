// Package debounce turns a rapidly changing value into a rate-limited
// committed value.
package debounce

import (
	"sync"
	"time"
)

// Debouncer commits the latest pushed value once it has stayed unchanged for
// the configured delay. Every Push of a new value cancels the pending commit
// and restarts the timer.
type Debouncer[T comparable] struct {
	delay  time.Duration
	commit func(T)

	mu        sync.Mutex
	raw       T
	committed T
	timer     *time.Timer
	gen       uint64
	stopped   bool
}

// New returns a debouncer whose raw and committed values both start at
// initial. commit runs on a timer goroutine (or the caller's, for Flush) and
// must be safe to call from any goroutine.
func New[T comparable](initial T, delay time.Duration, commit func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		delay:     delay,
		commit:    commit,
		raw:       initial,
		committed: initial,
	}
}

// Push records a new raw value. Pushing the current raw value again is a
// no-op and does not restart the timer.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || v == d.raw {
		return
	}
	d.raw = v
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}

	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// Flush commits the pending raw value now, skipping the remaining delay.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	d.fire(gen)
}

// Set makes v both the raw and the committed value without calling commit,
// dropping anything pending.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.raw = v
	d.committed = v
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer Push or Stop invalidated this timer after it had already
	// started running.
	if d.stopped || gen != d.gen || d.raw == d.committed {
		d.mu.Unlock()
		return
	}
	v := d.raw
	d.committed = v
	d.timer = nil
	d.mu.Unlock()

	d.commit(v)
}

// Stop cancels any pending commit. No commit starts after Stop returns.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Committed returns the last committed value.
func (d *Debouncer[T]) Committed() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Pending reports whether a raw value is waiting to be committed.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && d.raw != d.committed
}
