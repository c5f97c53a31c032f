// Package status provides a thread-safe status tracker for the shabbat-sensor
// daemon. It is read by HTTP handlers and serialized into MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// Config contains daemon configuration for display.
type Config struct {
	RefreshMs   int64
	HeartbeatMs int64
	TimeoutMs   int64
	Broker      string
	HTTPAddr    string
	Source      string // "scrape" or "hebcal"
	CalendarURL string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Inside             bool
	NextCandleLighting time.Time
	NextHavdalah       time.Time
	LastCandleLighting time.Time
	LastHavdalah       time.Time
	NextWake           time.Time

	// Loaded is true once at least one refresh has succeeded. Derived
	// values are untrusted until then.
	Loaded        bool
	CandleCount   int
	HavdalahCount int
	RefreshOK     int
	RefreshFailed int
	LastRefresh   time.Time
	LastError     string
	LastErrorTime time.Time

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateState records the boundary tracker's derived state and the live
// next-event queries. Called after every recompute.
func (t *Tracker) UpdateState(st calendar.State, nextCL, nextH time.Time) {
	t.mu.Lock()
	t.snap.Inside = st.Inside
	t.snap.LastCandleLighting = st.LastCandleLighting
	t.snap.LastHavdalah = st.LastHavdalah
	t.snap.NextWake = st.NextWake
	t.snap.NextCandleLighting = nextCL
	t.snap.NextHavdalah = nextH
	t.mu.Unlock()
}

// RecordRefreshOK records a successful refresh and the size of the new set.
func (t *Tracker) RecordRefreshOK(now time.Time, candleCount, havdalahCount int) {
	t.mu.Lock()
	t.snap.Loaded = true
	t.snap.RefreshOK++
	t.snap.LastRefresh = now
	t.snap.CandleCount = candleCount
	t.snap.HavdalahCount = havdalahCount
	t.mu.Unlock()
}

// RecordRefreshError records a failed refresh. The previous event counts
// stay in place: the daemon keeps serving the last-known-good set.
func (t *Tracker) RecordRefreshError(now time.Time, err error) {
	t.mu.Lock()
	t.snap.RefreshFailed++
	t.snap.LastError = err.Error()
	t.snap.LastErrorTime = now
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
