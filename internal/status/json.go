package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event              string      `json:"event,omitempty"`
	Reason             string      `json:"reason,omitempty"`
	IssurMelacha       bool        `json:"issur_melacha"`
	NextCandleLighting string      `json:"next_candle_lighting,omitempty"`
	NextHavdalah       string      `json:"next_havdalah,omitempty"`
	LastCandleLighting string      `json:"last_candle_lighting,omitempty"`
	LastHavdalah       string      `json:"last_havdalah,omitempty"`
	NextWake           string      `json:"next_wake,omitempty"`
	Ready              bool        `json:"ready"`
	UptimeSeconds      int64       `json:"uptime_seconds"`
	StartTime          string      `json:"start_time"`
	Timestamp          string      `json:"timestamp"`
	MQTT               MQTTStatus  `json:"mqtt"`
	Refresh            RefreshJSON `json:"refresh"`
	Config             ConfigJSON  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// RefreshJSON reports calendar refresh history and the loaded window size.
type RefreshJSON struct {
	OK            int    `json:"ok"`
	Failed        int    `json:"failed"`
	LastRefresh   string `json:"last_refresh,omitempty"`
	LastError     string `json:"last_error,omitempty"`
	LastErrorTime string `json:"last_error_time,omitempty"`
	CandleCount   int    `json:"candle_lighting_count"`
	HavdalahCount int    `json:"havdalah_count"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	RefreshMs   int64  `json:"refresh_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	TimeoutMs   int64  `json:"fetch_timeout_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Source      string `json:"source"`
	CalendarURL string `json:"calendar_url"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		IssurMelacha:       snap.Inside,
		NextCandleLighting: optional(snap.NextCandleLighting),
		NextHavdalah:       optional(snap.NextHavdalah),
		LastCandleLighting: optional(snap.LastCandleLighting),
		LastHavdalah:       optional(snap.LastHavdalah),
		NextWake:           optional(snap.NextWake),
		Ready:              snap.Loaded,
		UptimeSeconds:      int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:          snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:          snap.Now.UTC().Format(time.RFC3339),
		MQTT:               MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Refresh: RefreshJSON{
			OK:            snap.RefreshOK,
			Failed:        snap.RefreshFailed,
			LastRefresh:   optional(snap.LastRefresh),
			LastError:     snap.LastError,
			LastErrorTime: optional(snap.LastErrorTime),
			CandleCount:   snap.CandleCount,
			HavdalahCount: snap.HavdalahCount,
		},
		Config: ConfigJSON{
			RefreshMs:   snap.Config.RefreshMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			TimeoutMs:   snap.Config.TimeoutMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Source:      snap.Config.Source,
			CalendarURL: snap.Config.CalendarURL,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

func optional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
