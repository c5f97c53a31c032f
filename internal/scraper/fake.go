package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// FakeFetcher is a test double that returns scripted events or an error.
type FakeFetcher struct {
	mu sync.Mutex

	// Events is returned by Fetch when FetchError is nil.
	Events []calendar.Event

	// FetchError, if set, will be returned by Fetch.
	FetchError error

	// Calls counts Fetch invocations.
	Calls int
}

// NewFakeFetcher creates a FakeFetcher with the given events.
func NewFakeFetcher(events []calendar.Event) *FakeFetcher {
	return &FakeFetcher{Events: events}
}

// Fetch returns the scripted result.
func (f *FakeFetcher) Fetch(ctx context.Context, now time.Time) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.FetchError != nil {
		return nil, f.FetchError
	}
	out := make([]calendar.Event, len(f.Events))
	copy(out, f.Events)
	return out, nil
}

// Set replaces the scripted events and clears any error.
func (f *FakeFetcher) Set(events []calendar.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = events
	f.FetchError = nil
}

// Fail makes subsequent Fetch calls return err.
func (f *FakeFetcher) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchError = err
}
