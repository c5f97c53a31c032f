package calendar

import (
	"sync"
	"time"
)

// Scheduler arms a one-shot callback at an absolute wall-clock time.
// An `at` in the past must fire the callback as soon as possible.
type Scheduler interface {
	Arm(at time.Time, fn func()) TimerHandle
}

// TimerHandle cancels a pending callback. Cancel is idempotent and safe
// to call on an already-fired handle.
type TimerHandle interface {
	Cancel()
}

// State is the tracker's derived view of the current event set.
// Zero time values mean "absent".
type State struct {
	// Inside is true iff the most recent event at or before now is a
	// candle lighting. No data, or a havdalah that is latest (including
	// an exact timestamp tie), means false.
	Inside             bool
	LastCandleLighting time.Time
	LastHavdalah       time.Time
	NextWake           time.Time
}

// Tracker maintains the restricted-interval state and self-reschedules so
// the Inside flag flips at the correct instant without an external trigger.
// All state transitions funnel through a single wholesale recompute; the
// tracker never patches state incrementally, so a replaced event set can
// never leave it desynced.
type Tracker struct {
	mu      sync.Mutex
	sched   Scheduler
	now     func() time.Time
	observe func(State)
	set     *EventSet
	state   State
	pending TimerHandle
}

// NewTracker creates a tracker with no event data. observe is invoked with
// the full state on every recompute, changed or not; it runs while the
// tracker's lock is held and must not block.
func NewTracker(sched Scheduler, now func() time.Time, observe func(State)) *Tracker {
	return &Tracker{
		sched:   sched,
		now:     now,
		observe: observe,
		set:     NewEventSet(nil),
	}
}

// OnEventSetChanged installs the replacement event set and recomputes.
func (t *Tracker) OnEventSetChanged(set *EventSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set = set
	t.recomputeLocked(t.now())
}

// onTimerFired is the armed callback. A fire for a timer that was already
// superseded by an intervening event-set change is harmless: both paths
// run the same idempotent recompute.
func (t *Tracker) onTimerFired() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recomputeLocked(t.now())
}

// State returns the current derived state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Close cancels any pending timer. The tracker remains queryable.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending.Cancel()
		t.pending = nil
	}
}

func (t *Tracker) recomputeLocked(now time.Time) {
	lastCL := t.set.LastAtOrBefore(CandleLighting, now)
	lastH := t.set.LastAtOrBefore(Havdalah, now)

	// Strict After means an exact timestamp tie leaves Inside false:
	// havdalah wins the tie.
	inside := !lastCL.IsZero() && (lastH.IsZero() || lastCL.After(lastH))

	next := earliest(t.set.Next(CandleLighting, now), t.set.Next(Havdalah, now))

	// Never allow two live timers for the same tracker.
	if t.pending != nil {
		t.pending.Cancel()
		t.pending = nil
	}
	if !next.IsZero() {
		t.pending = t.sched.Arm(next, t.onTimerFired)
	}

	t.state = State{
		Inside:             inside,
		LastCandleLighting: lastCL,
		LastHavdalah:       lastH,
		NextWake:           next,
	}

	if t.observe != nil {
		t.observe(t.state)
	}
}

// earliest returns the earlier of two instants, ignoring zero values.
func earliest(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}
