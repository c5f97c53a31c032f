// Package calendar contains pure business logic for shabbat boundary tracking.
// This package has NO external dependencies (no HTTP, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package calendar

import (
	"sort"
	"time"
)

// Kind identifies which boundary an event marks.
type Kind string

const (
	// CandleLighting opens a restricted interval.
	CandleLighting Kind = "CANDLE_LIGHTING"
	// Havdalah closes a restricted interval.
	Havdalah Kind = "HAVDALAH"
)

// Event is a single boundary occurrence. Immutable once constructed.
type Event struct {
	Kind Kind
	At   time.Time
}

// EventSet is an immutable snapshot of all known events for the loaded
// window. It is replaced wholesale on refresh, never mutated, so it is safe
// to share across goroutines without locking.
type EventSet struct {
	candleLighting []time.Time // ascending
	havdalah       []time.Time // ascending
}

// NewEventSet partitions events by kind and sorts each partition ascending
// by time. The sort is stable so events sharing a timestamp keep producer
// order. An empty input is valid and represents "no data".
func NewEventSet(events []Event) *EventSet {
	s := &EventSet{}
	for _, e := range events {
		switch e.Kind {
		case CandleLighting:
			s.candleLighting = append(s.candleLighting, e.At)
		case Havdalah:
			s.havdalah = append(s.havdalah, e.At)
		}
	}
	sort.SliceStable(s.candleLighting, func(i, j int) bool {
		return s.candleLighting[i].Before(s.candleLighting[j])
	})
	sort.SliceStable(s.havdalah, func(i, j int) bool {
		return s.havdalah[i].Before(s.havdalah[j])
	})
	return s
}

// Next returns the smallest event time of the given kind strictly after
// the given instant, or the zero time if none exists.
func (s *EventSet) Next(kind Kind, after time.Time) time.Time {
	times := s.times(kind)
	i := sort.Search(len(times), func(i int) bool {
		return times[i].After(after)
	})
	if i == len(times) {
		return time.Time{}
	}
	return times[i]
}

// LastAtOrBefore returns the largest event time of the given kind at or
// before the given instant, or the zero time if none exists.
func (s *EventSet) LastAtOrBefore(kind Kind, at time.Time) time.Time {
	times := s.times(kind)
	i := sort.Search(len(times), func(i int) bool {
		return times[i].After(at)
	})
	if i == 0 {
		return time.Time{}
	}
	return times[i-1]
}

// Counts returns the number of events of each kind in the set.
func (s *EventSet) Counts() (candleLighting, havdalah int) {
	return len(s.candleLighting), len(s.havdalah)
}

// Empty reports whether the set contains no events of either kind.
func (s *EventSet) Empty() bool {
	return len(s.candleLighting) == 0 && len(s.havdalah) == 0
}

func (s *EventSet) times(kind Kind) []time.Time {
	if kind == CandleLighting {
		return s.candleLighting
	}
	return s.havdalah
}
