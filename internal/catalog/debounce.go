package catalog

import (
	"sync"
	"time"
)

// DefaultSearchDelay is the quiet window applied to search input.
const DefaultSearchDelay = 300 * time.Millisecond

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. RealClock uses the runtime timers; tests supply
// a manual clock so time can be advanced deterministically.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock is a Clock backed by time.AfterFunc.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer coalesces rapid values: each Trigger restarts the quiet window
// and only the value pending when the window expires is applied.
type Debouncer struct {
	wait  time.Duration
	clock Clock
	apply func(string)

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending *string
}

// NewDebouncer returns a debouncer that calls apply with the latest value
// after wait has passed without a new Trigger. A nil clock means RealClock.
func NewDebouncer(wait time.Duration, clock Clock, apply func(string)) *Debouncer {
	if wait <= 0 {
		wait = DefaultSearchDelay
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{wait: wait, clock: clock, apply: apply}
}

// Trigger records v as the pending value and restarts the window.
func (d *Debouncer) Trigger(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = &v
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen) })
}

// fire applies the pending value unless a later Trigger superseded gen.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	v := *d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	d.apply(v)
}

// Flush applies the pending value now, if any, and reports whether it did.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	v := *d.pending
	d.pending = nil
	d.mu.Unlock()

	d.apply(v)
	return true
}

// Cancel drops the pending value without applying it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = nil
}

// Pending returns the value waiting to be applied.
func (d *Debouncer) Pending() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return "", false
	}
	return *d.pending, true
}
