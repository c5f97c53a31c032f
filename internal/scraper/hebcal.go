package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// HebcalURL is the Hebcal Jewish calendar API endpoint.
const HebcalURL = "https://www.hebcal.com/hebcal"

// Hebcal fetches events from the Hebcal JSON API instead of scraping the
// shul website. It requests a window of days either side of now.
type Hebcal struct {
	url        string
	zipcode    string
	daysBefore int
	daysAfter  int
	client     *http.Client
}

// NewHebcal creates a Hebcal fetcher for the given US zip code, covering
// seven days either side of the query time.
func NewHebcal(apiURL, zipcode string, timeout time.Duration) *Hebcal {
	return &Hebcal{
		url:        apiURL,
		zipcode:    zipcode,
		daysBefore: 7,
		daysAfter:  7,
		client:     &http.Client{Timeout: timeout},
	}
}

// hebcalResponse is the subset of the API response we consume.
type hebcalResponse struct {
	Items []hebcalItem `json:"items"`
}

type hebcalItem struct {
	Category string `json:"category"`
	Date     string `json:"date"` // RFC3339 with offset
}

// Fetch queries the API for candle lighting and havdalah items.
func (h *Hebcal) Fetch(ctx context.Context, now time.Time) ([]calendar.Event, error) {
	q := url.Values{}
	q.Set("v", "1")
	q.Set("cfg", "json")
	q.Set("start", now.AddDate(0, 0, -h.daysBefore).Format("2006-01-02"))
	q.Set("end", now.AddDate(0, 0, h.daysAfter).Format("2006-01-02"))
	q.Set("zip", h.zipcode)
	q.Set("m", "50") // minutes after sunset for havdalah
	q.Set("maj", "on")
	q.Set("min", "on")
	q.Set("mod", "on")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ConnectivityError{Err: fmt.Errorf("HTTP %d from hebcal", resp.StatusCode)}
	}

	var body hebcalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &StructuralError{Msg: "bad hebcal response", Err: err}
	}

	var events []calendar.Event
	for _, item := range body.Items {
		var kind calendar.Kind
		switch item.Category {
		case "candles":
			kind = calendar.CandleLighting
		case "havdalah":
			kind = calendar.Havdalah
		default:
			continue
		}
		at, err := time.Parse(time.RFC3339, item.Date)
		if err != nil {
			log.Printf("hebcal: bad date %q: %v", item.Date, err)
			continue
		}
		events = append(events, calendar.Event{Kind: kind, At: at})
	}

	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	return events, nil
}
