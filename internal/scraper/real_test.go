package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// calendarFixture mimics the shul calendar markup: day cells keyed by a
// td id, a dayhead link carrying the date, and popover triggers whose
// escaped popup HTML holds the event title.
const calendarFixture = `<!DOCTYPE html>
<html><body><table>
<tr>
<td id="td20260102">
  <div class="dayhead"><a href="/calendar?cal_date=2026-01-02">2</a></div>
  <ul>
    <li class="calendar_popover_trigger" data-popuphtml="&lt;h3&gt;Candle Lighting&lt;/h3&gt;&lt;p&gt;4:21pm&lt;/p&gt;">4:21pm Candle Lighting</li>
    <li class="calendar_popover_trigger" data-popuphtml="&lt;h3&gt;Earliest Candle Lighting&lt;/h3&gt;">3:30pm Earliest Candle Lighting</li>
    <li class="calendar_popover_trigger" data-popuphtml="&lt;h3&gt;Mincha&lt;/h3&gt;">4:00pm Mincha</li>
  </ul>
</td>
<td id="td20260103">
  <div class="dayhead"><a href="/calendar?cal_date=2026-01-03">3</a></div>
  <ul>
    <li class="calendar_popover_trigger" data-popuphtml="&lt;h3&gt;Shabbat Ends&lt;/h3&gt;">5:25pm Shabbat Ends</li>
    <li class="calendar_popover_trigger">no popup attribute</li>
  </ul>
</td>
</tr>
</table></body></html>`

func parseFixture(t *testing.T, page string) ([]calendar.Event, error) {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return parseCalendar(doc)
}

func TestParseCalendarFixture(t *testing.T) {
	events, err := parseFixture(t, calendarFixture)
	if err != nil {
		t.Fatalf("parseCalendar: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}

	wantCL := time.Date(2026, 1, 2, 16, 21, 0, 0, time.Local)
	if events[0].Kind != calendar.CandleLighting {
		t.Errorf("event 0 kind: got %s, want %s", events[0].Kind, calendar.CandleLighting)
	}
	if !events[0].At.Equal(wantCL) {
		t.Errorf("event 0 time: got %v, want %v", events[0].At, wantCL)
	}

	wantH := time.Date(2026, 1, 3, 17, 25, 0, 0, time.Local)
	if events[1].Kind != calendar.Havdalah {
		t.Errorf("event 1 kind: got %s, want %s", events[1].Kind, calendar.Havdalah)
	}
	if !events[1].At.Equal(wantH) {
		t.Errorf("event 1 time: got %v, want %v", events[1].At, wantH)
	}
}

func TestParseCalendarNoDayCells(t *testing.T) {
	_, err := parseFixture(t, `<html><body><p>Site under maintenance</p></body></html>`)

	var se *StructuralError
	if err == nil {
		t.Fatal("expected error for page without day cells")
	}
	if !errors.As(err, &se) {
		t.Errorf("got %T (%v), want *StructuralError", err, err)
	}
	if IsConnectivity(err) {
		t.Error("structural error classified as connectivity")
	}
}

func TestParseCalendarNoMatchingEvents(t *testing.T) {
	page := `<html><body><table><tr>
<td id="td20260102">
  <div class="dayhead"><a href="/calendar?cal_date=2026-01-02">2</a></div>
  <ul><li class="calendar_popover_trigger" data-popuphtml="&lt;h3&gt;Mincha&lt;/h3&gt;">4:00pm Mincha</li></ul>
</td>
</tr></table></body></html>`

	_, err := parseFixture(t, page)
	if err != ErrNoEvents {
		t.Errorf("got %v, want ErrNoEvents", err)
	}
}

func TestParseCalendarSkipsBadTimestamps(t *testing.T) {
	page := `<html><body><table><tr>
<td id="td20260102">
  <div class="dayhead"><a href="/calendar?cal_date=2026-01-02">2</a></div>
  <ul>
    <li class="calendar_popover_trigger" data-popuphtml="&lt;h3&gt;Candle Lighting&lt;/h3&gt;">TBD Candle Lighting</li>
    <li class="calendar_popover_trigger" data-popuphtml="&lt;h3&gt;Candle Lighting&lt;/h3&gt;">4:21pm Candle Lighting</li>
  </ul>
</td>
</tr></table></body></html>`

	events, err := parseFixture(t, page)
	if err != nil {
		t.Fatalf("parseCalendar: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("events: got %d, want 1 (unparseable time skipped)", len(events))
	}
}

func TestScraperFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("missing browser User-Agent, got %q", ua)
		}
		w.Write([]byte(calendarFixture))
	}))
	defer ts.Close()

	s := NewScraper(ts.URL, 5*time.Second)
	events, err := s.Fetch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events: got %d, want 2", len(events))
	}
}

func TestScraperFetchNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	s := NewScraper(ts.URL, 5*time.Second)
	_, err := s.Fetch(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !IsConnectivity(err) {
		t.Errorf("got %T (%v), want *ConnectivityError", err, err)
	}
}

func TestScraperFetchConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	s := NewScraper(url, time.Second)
	_, err := s.Fetch(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected error for refused connection")
	}
	if !IsConnectivity(err) {
		t.Errorf("got %T (%v), want *ConnectivityError", err, err)
	}
}

func TestTitleFilters(t *testing.T) {
	cases := []struct {
		title    string
		candle   bool
		havdalah bool
	}{
		{"Candle Lighting", true, false},
		{"Candle Lighting 4:21pm", true, false},
		{"Earliest Candle Lighting", false, false},
		{"Shabbat Ends", false, true},
		{"Yom Tov Ends", false, true},
		{"Mincha", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		if got := isCandleLighting(tc.title); got != tc.candle {
			t.Errorf("isCandleLighting(%q): got %v, want %v", tc.title, got, tc.candle)
		}
		if got := isHavdalah(tc.title); got != tc.havdalah {
			t.Errorf("isHavdalah(%q): got %v, want %v", tc.title, got, tc.havdalah)
		}
	}
}
