// Package store owns the current event set and replaces it atomically on
// each successful refresh.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
	"github.com/sweeney/shabbat-sensor/internal/scraper"
)

// Store holds the latest successfully loaded event set. Readers always see
// either the fully-old or fully-new snapshot; a failed refresh never
// disturbs the current one.
type Store struct {
	fetcher scraper.Fetcher

	mu      sync.RWMutex
	current *calendar.EventSet
	subs    map[int]func(*calendar.EventSet)
	nextSub int
}

// New creates a Store with an empty event set.
func New(fetcher scraper.Fetcher) *Store {
	return &Store{
		fetcher: fetcher,
		current: calendar.NewEventSet(nil),
		subs:    make(map[int]func(*calendar.EventSet)),
	}
}

// Current returns the latest installed snapshot. Before the first
// successful load this is an empty set, never nil.
func (s *Store) Current() *calendar.EventSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers fn to be called synchronously with the new set after
// every successful reload. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(*calendar.EventSet)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Reload builds a new event set from the raw events and installs it. An
// empty input is rejected as scraper.ErrNoEvents and the previous set is
// retained. Subscribers are notified before Reload returns.
func (s *Store) Reload(events []calendar.Event) error {
	if len(events) == 0 {
		return scraper.ErrNoEvents
	}
	set := calendar.NewEventSet(events)

	s.mu.Lock()
	s.current = set
	subs := make([]func(*calendar.EventSet), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(set)
	}
	return nil
}

// Refresh fetches the calendar window and reloads from the result. On any
// fetch error the previous set is retained and the error returned. Refresh
// may block for the fetcher's full timeout; run it off the hot path.
func (s *Store) Refresh(ctx context.Context, now time.Time) error {
	events, err := s.fetcher.Fetch(ctx, now)
	if err != nil {
		return err
	}
	return s.Reload(events)
}
