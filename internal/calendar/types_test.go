package calendar

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 1, 2, hour, min, 0, 0, time.UTC)
}

func TestNewEventSetSortsUnorderedInput(t *testing.T) {
	set := NewEventSet([]Event{
		{Kind: CandleLighting, At: at(17, 0)},
		{Kind: Havdalah, At: at(18, 0)},
		{Kind: CandleLighting, At: at(8, 0)},
		{Kind: Havdalah, At: at(9, 0)},
	})

	if got := set.Next(CandleLighting, at(0, 0)); !got.Equal(at(8, 0)) {
		t.Errorf("Next candle lighting from midnight: got %v, want %v", got, at(8, 0))
	}
	if got := set.Next(Havdalah, at(0, 0)); !got.Equal(at(9, 0)) {
		t.Errorf("Next havdalah from midnight: got %v, want %v", got, at(9, 0))
	}

	cl, h := set.Counts()
	if cl != 2 || h != 2 {
		t.Errorf("Counts: got (%d, %d), want (2, 2)", cl, h)
	}
	if set.Empty() {
		t.Error("set with events should not be Empty")
	}
}

func TestNextIsStrictlyAfter(t *testing.T) {
	set := NewEventSet([]Event{
		{Kind: CandleLighting, At: at(8, 0)},
		{Kind: CandleLighting, At: at(17, 0)},
	})

	// Exactly at an event time the event is not "next"
	if got := set.Next(CandleLighting, at(8, 0)); !got.Equal(at(17, 0)) {
		t.Errorf("Next at exact event time: got %v, want %v", got, at(17, 0))
	}
	// One second before
	if got := set.Next(CandleLighting, at(7, 59)); !got.Equal(at(8, 0)) {
		t.Errorf("Next just before event: got %v, want %v", got, at(8, 0))
	}
	// After the last event
	if got := set.Next(CandleLighting, at(17, 0)); !got.IsZero() {
		t.Errorf("Next past last event: got %v, want zero", got)
	}
}

func TestLastAtOrBeforeIncludesExactMatch(t *testing.T) {
	set := NewEventSet([]Event{
		{Kind: Havdalah, At: at(9, 0)},
		{Kind: Havdalah, At: at(18, 0)},
	})

	// Exactly at an event time the event counts as "last"
	if got := set.LastAtOrBefore(Havdalah, at(9, 0)); !got.Equal(at(9, 0)) {
		t.Errorf("LastAtOrBefore at exact event time: got %v, want %v", got, at(9, 0))
	}
	if got := set.LastAtOrBefore(Havdalah, at(12, 0)); !got.Equal(at(9, 0)) {
		t.Errorf("LastAtOrBefore between events: got %v, want %v", got, at(9, 0))
	}
	if got := set.LastAtOrBefore(Havdalah, at(23, 0)); !got.Equal(at(18, 0)) {
		t.Errorf("LastAtOrBefore after all events: got %v, want %v", got, at(18, 0))
	}
	// Before the first event
	if got := set.LastAtOrBefore(Havdalah, at(8, 59)); !got.IsZero() {
		t.Errorf("LastAtOrBefore before first event: got %v, want zero", got)
	}
}

func TestEmptySetQueries(t *testing.T) {
	set := NewEventSet(nil)

	if !set.Empty() {
		t.Error("expected Empty for nil input")
	}
	if got := set.Next(CandleLighting, at(12, 0)); !got.IsZero() {
		t.Errorf("Next on empty set: got %v, want zero", got)
	}
	if got := set.LastAtOrBefore(Havdalah, at(12, 0)); !got.IsZero() {
		t.Errorf("LastAtOrBefore on empty set: got %v, want zero", got)
	}
}

func TestKindsQueriedIndependently(t *testing.T) {
	set := NewEventSet([]Event{
		{Kind: CandleLighting, At: at(8, 0)},
		{Kind: Havdalah, At: at(9, 0)},
	})

	if got := set.Next(Havdalah, at(8, 30)); !got.Equal(at(9, 0)) {
		t.Errorf("Next havdalah: got %v, want %v", got, at(9, 0))
	}
	if got := set.Next(CandleLighting, at(8, 30)); !got.IsZero() {
		t.Errorf("Next candle lighting: got %v, want zero", got)
	}
	if got := set.LastAtOrBefore(CandleLighting, at(8, 30)); !got.Equal(at(8, 0)) {
		t.Errorf("LastAtOrBefore candle lighting: got %v, want %v", got, at(8, 0))
	}
	if got := set.LastAtOrBefore(Havdalah, at(8, 30)); !got.IsZero() {
		t.Errorf("LastAtOrBefore havdalah: got %v, want zero", got)
	}
}

func TestDuplicateTimestampsWithinKindDoNotCrash(t *testing.T) {
	// A correct feed never has these, but a buggy one must not break queries.
	set := NewEventSet([]Event{
		{Kind: CandleLighting, At: at(8, 0)},
		{Kind: CandleLighting, At: at(8, 0)},
		{Kind: CandleLighting, At: at(17, 0)},
	})

	if got := set.Next(CandleLighting, at(7, 0)); !got.Equal(at(8, 0)) {
		t.Errorf("Next with duplicates: got %v, want %v", got, at(8, 0))
	}
	if got := set.LastAtOrBefore(CandleLighting, at(8, 0)); !got.Equal(at(8, 0)) {
		t.Errorf("LastAtOrBefore with duplicates: got %v, want %v", got, at(8, 0))
	}
}
