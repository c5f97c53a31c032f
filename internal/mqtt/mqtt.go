// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicState is the retained topic carrying the full sensor state.
const TopicState = "home/shabbat/sensor/state"

// TopicEvents is the MQTT topic for boundary transition events.
const TopicEvents = "home/shabbat/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/shabbat/sensor/system"

// EventType is a boundary transition.
type EventType string

const (
	EventIssurMelachaBegin EventType = "ISSUR_MELACHA_BEGIN"
	EventIssurMelachaEnd   EventType = "ISSUR_MELACHA_END"
)

// Event represents a boundary transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
}

// StateMessage is the full sensor state published (retained) after every
// recompute. Zero time values mean the value is unavailable.
type StateMessage struct {
	Timestamp          time.Time
	IssurMelacha       bool
	NextCandleLighting time.Time
	NextHavdalah       time.Time
	LastCandleLighting time.Time
	LastHavdalah       time.Time
}

// Publisher publishes sensor output to MQTT.
type Publisher interface {
	// PublishState sends the retained state message.
	// Returns error if publishing fails (should not crash the process).
	PublishState(msg StateMessage) error

	// PublishEvent sends a boundary transition event.
	PublishEvent(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// StatePayload is the MQTT message payload for the state topic.
type StatePayload struct {
	Shabbat StateInner `json:"shabbat"`
}

// StateInner contains the sensor values.
type StateInner struct {
	Timestamp          string `json:"timestamp"`
	IssurMelacha       bool   `json:"issur_melacha"`
	NextCandleLighting string `json:"next_candle_lighting,omitempty"`
	NextHavdalah       string `json:"next_havdalah,omitempty"`
	LastCandleLighting string `json:"last_candle_lighting,omitempty"`
	LastHavdalah       string `json:"last_havdalah,omitempty"`
}

// EventPayload is the MQTT message payload for transition events.
type EventPayload struct {
	Shabbat EventInner `json:"shabbat"`
}

// EventInner contains the transition details.
type EventInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// FormatStatePayload creates the JSON payload for a state message.
func FormatStatePayload(msg StateMessage) ([]byte, error) {
	payload := StatePayload{
		Shabbat: StateInner{
			Timestamp:          msg.Timestamp.UTC().Format(time.RFC3339),
			IssurMelacha:       msg.IssurMelacha,
			NextCandleLighting: formatOptional(msg.NextCandleLighting),
			NextHavdalah:       formatOptional(msg.NextHavdalah),
			LastCandleLighting: formatOptional(msg.LastCandleLighting),
			LastHavdalah:       formatOptional(msg.LastHavdalah),
		},
	}
	return json.Marshal(payload)
}

// FormatEventPayload creates the JSON payload for a transition event.
func FormatEventPayload(event Event) ([]byte, error) {
	payload := EventPayload{
		Shabbat: EventInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// formatOptional renders a time as RFC3339, or "" for the zero time so the
// field is omitted from the JSON.
func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
