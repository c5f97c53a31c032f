package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
)

// DefaultURL is the shul calendar page.
const DefaultURL = "https://www.youngisraelwh.org/calendar"

// userAgent mimics a desktop browser; the calendar site serves a reduced
// page to unknown agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// cellTimeLayout matches the "2026-01-02 5:27pm" strings assembled from a
// day cell's date link and an event's visible time.
const cellTimeLayout = "2006-01-02 3:04pm"

// Scraper fetches events by scraping the calendar page HTML.
type Scraper struct {
	url    string
	client *http.Client
}

// NewScraper creates a scraper for the given calendar URL with the given
// request timeout.
func NewScraper(url string, timeout time.Duration) *Scraper {
	return &Scraper{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves and parses the calendar page. The now parameter is
// unused here: the page always shows the current month.
func (s *Scraper) Fetch(ctx context.Context, now time.Time) ([]calendar.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ConnectivityError{Err: fmt.Errorf("HTTP %d from %s", resp.StatusCode, s.url)}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, &StructuralError{Msg: "unparseable HTML", Err: err}
	}

	return parseCalendar(doc)
}

// parseCalendar extracts events from a parsed calendar page.
func parseCalendar(doc *html.Node) ([]calendar.Event, error) {
	var cells []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" && strings.HasPrefix(attr(n, "id"), "td") {
			cells = append(cells, n)
		}
	})
	if len(cells) == 0 {
		return nil, &StructuralError{Msg: "no calendar day cells found"}
	}

	var events []calendar.Event
	for _, cell := range cells {
		date := cellDate(cell)
		if date == "" {
			continue
		}
		walk(cell, func(n *html.Node) {
			if n.Type != html.ElementNode || n.Data != "li" || !hasClass(n, "calendar_popover_trigger") {
				return
			}
			ev, ok := parseEvent(n, date)
			if ok {
				events = append(events, ev)
			}
		})
	}

	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	return events, nil
}

// cellDate pulls the cal_date=YYYY-MM-DD value from the day header link.
func cellDate(cell *html.Node) string {
	var date string
	walk(cell, func(n *html.Node) {
		if date != "" || n.Type != html.ElementNode || n.Data != "div" || !hasClass(n, "dayhead") {
			return
		}
		walk(n, func(a *html.Node) {
			if date != "" || a.Type != html.ElementNode || a.Data != "a" {
				return
			}
			href := attr(a, "href")
			if i := strings.LastIndex(href, "cal_date="); i >= 0 {
				date = href[i+len("cal_date="):]
			}
		})
	})
	return date
}

// parseEvent extracts one event from a popover trigger. The event title
// lives in the data-popuphtml fragment's <h3>; the visible text starts
// with the time.
func parseEvent(li *html.Node, date string) (calendar.Event, bool) {
	popup := attr(li, "data-popuphtml")
	if popup == "" {
		return calendar.Event{}, false
	}

	frag, err := html.Parse(strings.NewReader(popup))
	if err != nil {
		log.Printf("scraper: unparseable popup on %s: %v", date, err)
		return calendar.Event{}, false
	}

	var title string
	walk(frag, func(n *html.Node) {
		if title == "" && n.Type == html.ElementNode && n.Data == "h3" {
			title = strings.TrimSpace(nodeText(n))
		}
	})

	var kind calendar.Kind
	switch {
	case isCandleLighting(title):
		kind = calendar.CandleLighting
	case isHavdalah(title):
		kind = calendar.Havdalah
	default:
		return calendar.Event{}, false
	}

	fields := strings.Fields(nodeText(li))
	if len(fields) == 0 {
		log.Printf("scraper: no visible time for %q on %s", title, date)
		return calendar.Event{}, false
	}

	at, err := time.ParseInLocation(cellTimeLayout, date+" "+strings.ToLower(fields[0]), time.Local)
	if err != nil {
		log.Printf("scraper: bad timestamp for %q on %s: %v", title, date, err)
		return calendar.Event{}, false
	}

	return calendar.Event{Kind: kind, At: at}, true
}

// isCandleLighting matches candle lighting titles, excluding the
// "Earliest Candle Lighting" entries the site also lists.
func isCandleLighting(title string) bool {
	return strings.Contains(title, "Candle Lighting") && !strings.Contains(title, "Earliest")
}

func isHavdalah(title string) bool {
	return strings.Contains(title, "Shabbat Ends") || strings.Contains(title, "Yom Tov Ends")
}

// walk calls fn on n and every descendant in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the node's class list contains the given class.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText concatenates all text nodes under n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(b.String())
}
