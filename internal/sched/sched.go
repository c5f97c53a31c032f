// Package sched provides one-shot wall-clock timers with a fake for testing.
// The real implementation is a thin wrapper over time.AfterFunc; the fake
// records armed times and fires on demand.
package sched

import (
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// Wall arms callbacks against the real clock.
type Wall struct{}

// NewWall creates a wall-clock scheduler.
func NewWall() *Wall {
	return &Wall{}
}

// Arm schedules fn to run at or after the given instant. An instant in the
// past fires as soon as possible.
func (*Wall) Arm(at time.Time, fn func()) calendar.TimerHandle {
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	return &wallHandle{timer: time.AfterFunc(d, fn)}
}

type wallHandle struct {
	timer *time.Timer
}

// Cancel stops the timer if it has not fired. Safe to call repeatedly and
// after the callback has run.
func (h *wallHandle) Cancel() {
	h.timer.Stop()
}
