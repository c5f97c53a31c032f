package sched

import (
	"sync"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// Fake is a test scheduler. Armed timers never fire on their own; tests
// call Fire to run the most recently armed callback.
type Fake struct {
	mu    sync.Mutex
	armed []*FakeHandle
}

// FakeHandle records a single armed timer.
type FakeHandle struct {
	fake      *Fake
	At        time.Time
	fn        func()
	Cancelled bool
	Fired     bool
}

// NewFake creates a Fake scheduler.
func NewFake() *Fake {
	return &Fake{}
}

// Arm records the timer and returns its handle.
func (f *Fake) Arm(at time.Time, fn func()) calendar.TimerHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &FakeHandle{fake: f, At: at, fn: fn}
	f.armed = append(f.armed, h)
	return h
}

// Cancel marks the handle cancelled. Idempotent.
func (h *FakeHandle) Cancel() {
	h.fake.mu.Lock()
	defer h.fake.mu.Unlock()
	h.Cancelled = true
}

// ArmCount returns the number of Arm calls made so far.
func (f *Fake) ArmCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.armed)
}

// Pending returns the handles that are armed and neither cancelled nor
// fired. A correctly behaving caller holds at most one at a time.
func (f *Fake) Pending() []*FakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*FakeHandle
	for _, h := range f.armed {
		if !h.Cancelled && !h.Fired {
			out = append(out, h)
		}
	}
	return out
}

// Fire runs the callback of the single pending timer. It panics if zero or
// more than one timer is pending, since that is itself a bug in the caller.
func (f *Fake) Fire() {
	pending := f.Pending()
	if len(pending) != 1 {
		panic("sched: Fire requires exactly one pending timer")
	}
	h := pending[0]
	f.mu.Lock()
	h.Fired = true
	f.mu.Unlock()
	h.fn()
}
