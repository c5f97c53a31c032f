// Package scraper fetches candle lighting and havdalah times from the shul
// calendar website, with abstraction for testing.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// Fetcher produces the raw event list for the current calendar window.
type Fetcher interface {
	// Fetch returns all candle lighting and havdalah events visible in the
	// source around the given instant. The returned slice is unordered.
	// Errors are *ConnectivityError, *StructuralError, or ErrNoEvents.
	Fetch(ctx context.Context, now time.Time) ([]calendar.Event, error)
}

// ConnectivityError means the calendar source could not be reached:
// network failure, timeout, or a non-2xx response.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("calendar fetch: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// StructuralError means the source responded but did not contain the
// expected structure, e.g. the site layout changed.
type StructuralError struct {
	Msg string
	Err error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar structure: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("calendar structure: %s", e.Msg)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// ErrNoEvents means the fetch succeeded but the window contained no events
// of either kind. Treated as a structural failure: the previous event set
// is kept.
var ErrNoEvents = errors.New("no calendar events found")

// IsConnectivity reports whether err is a connectivity failure as opposed
// to a structural one.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
