package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

const hebcalFixture = `{
  "title": "Hebcal West Hartford January 2026",
  "items": [
    {"title": "Candle lighting: 4:21pm", "category": "candles", "date": "2026-01-02T16:21:00-05:00"},
    {"title": "Havdalah (50 min): 5:25pm", "category": "havdalah", "date": "2026-01-03T17:25:00-05:00"},
    {"title": "Rosh Chodesh", "category": "roshchodesh", "date": "2026-01-19"},
    {"title": "Candle lighting: 4:29pm", "category": "candles", "date": "not-a-date"}
  ]
}`

func TestHebcalFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("cfg") != "json" {
			t.Errorf("cfg: got %q, want json", q.Get("cfg"))
		}
		if q.Get("zip") != "06117" {
			t.Errorf("zip: got %q, want 06117", q.Get("zip"))
		}
		if q.Get("start") == "" || q.Get("end") == "" {
			t.Error("missing start/end window parameters")
		}
		w.Write([]byte(hebcalFixture))
	}))
	defer ts.Close()

	h := NewHebcal(ts.URL, "06117", 5*time.Second)
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	events, err := h.Fetch(context.Background(), now)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// Two valid items: the non-event category and the bad date are skipped
	if len(events) != 2 {
		t.Fatalf("events: got %d, want 2", len(events))
	}
	if events[0].Kind != calendar.CandleLighting {
		t.Errorf("event 0 kind: got %s, want %s", events[0].Kind, calendar.CandleLighting)
	}
	wantCL := time.Date(2026, 1, 2, 16, 21, 0, 0, time.FixedZone("", -5*3600))
	if !events[0].At.Equal(wantCL) {
		t.Errorf("event 0 time: got %v, want %v", events[0].At, wantCL)
	}
	if events[1].Kind != calendar.Havdalah {
		t.Errorf("event 1 kind: got %s, want %s", events[1].Kind, calendar.Havdalah)
	}
}

func TestHebcalFetchWindow(t *testing.T) {
	var start, end string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start = r.URL.Query().Get("start")
		end = r.URL.Query().Get("end")
		w.Write([]byte(hebcalFixture))
	}))
	defer ts.Close()

	h := NewHebcal(ts.URL, "06117", 5*time.Second)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	if _, err := h.Fetch(context.Background(), now); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if start != "2026-01-08" {
		t.Errorf("start: got %q, want 2026-01-08", start)
	}
	if end != "2026-01-22" {
		t.Errorf("end: got %q, want 2026-01-22", end)
	}
}

func TestHebcalFetchNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	h := NewHebcal(ts.URL, "06117", 5*time.Second)
	_, err := h.Fetch(context.Background(), time.Now())
	if !IsConnectivity(err) {
		t.Errorf("got %T (%v), want *ConnectivityError", err, err)
	}
}

func TestHebcalFetchBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	h := NewHebcal(ts.URL, "06117", 5*time.Second)
	_, err := h.Fetch(context.Background(), time.Now())

	var se *StructuralError
	if !errors.As(err, &se) {
		t.Errorf("got %T (%v), want *StructuralError", err, err)
	}
}

func TestHebcalFetchNoEvents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"title": "Tu BiShvat", "category": "holiday", "date": "2026-02-02"}]}`))
	}))
	defer ts.Close()

	h := NewHebcal(ts.URL, "06117", 5*time.Second)
	_, err := h.Fetch(context.Background(), time.Now())
	if err != ErrNoEvents {
		t.Errorf("got %v, want ErrNoEvents", err)
	}
}
