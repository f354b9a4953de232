// Package persist writes search state to storage behind a trailing-edge debounce.
package persist

import (
	"sync"
	"time"
)

// Debouncer runs fn once after a quiet period. Every Trigger restarts the
// period. A single timer is reused for the Debouncer's lifetime.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// NewDebouncer creates a Debouncer.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn, replacing any schedule not yet fired.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

// Cancel drops a scheduled run and reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.take()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()
	d.fn()
}

// take must be called with d.mu held.
func (d *Debouncer) take() bool {
	if !d.pending {
		return false
	}
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	return true
}
