// Command shabbat-sensor scrapes shul calendar times and publishes the
// issur melacha state and next candle lighting / havdalah times to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sweeney/shabbat-sensor/internal/calendar"
	"github.com/sweeney/shabbat-sensor/internal/mqtt"
	"github.com/sweeney/shabbat-sensor/internal/scraper"
	"github.com/sweeney/shabbat-sensor/internal/sched"
	"github.com/sweeney/shabbat-sensor/internal/status"
	"github.com/sweeney/shabbat-sensor/internal/store"
	"github.com/sweeney/shabbat-sensor/internal/web"
)

func main() {
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	source := flag.String("source", "scrape", `Calendar source: "scrape" or "hebcal"`)
	calURL := flag.String("calendar-url", scraper.DefaultURL, "Calendar page URL for the scrape source")
	zip := flag.String("zip", "06117", "US zip code for the hebcal source")
	refresh := flag.Duration("refresh", time.Hour, "Calendar refresh interval")
	fetchTimeout := flag.Duration("fetch-timeout", 10*time.Second, "Calendar fetch timeout")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	printEvents := flag.Bool("print-events", false, "Fetch the calendar once, print events, and exit")

	flag.Parse()

	if err := run(*broker, *source, *calURL, *zip, *refresh, *fetchTimeout, *heartbeat, *httpAddr, *printEvents); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(broker, source, calURL, zip string, refresh, fetchTimeout, heartbeat time.Duration, httpAddr string, printEvents bool) error {
	fetcher, err := buildFetcher(source, calURL, zip, fetchTimeout)
	if err != nil {
		return err
	}

	// Print mode: one fetch, print, exit
	if printEvents {
		return printCalendar(fetcher, fetchTimeout, time.Now())
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	statusTracker := status.NewTracker(time.Now(), status.Config{
		RefreshMs:   refresh.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		TimeoutMs:   fetchTimeout.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		Source:      source,
		CalendarURL: calURL,
	})

	// Publish startup event with full status snapshot
	snap := statusTracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, statusTracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	// Wire the pipeline: store -> boundary tracker -> state channel.
	// The tracker's observer runs inside recompute (including the timer
	// callback path) and must not block, so state is handed to the loop
	// over a buffered channel.
	eventStore := store.New(fetcher)
	stateCh := make(chan calendar.State, 16)
	tracker := calendar.NewTracker(sched.NewWall(), time.Now, func(st calendar.State) {
		select {
		case stateCh <- st:
		default:
			log.Printf("state channel full, dropping update")
		}
	})
	defer tracker.Close()
	eventStore.Subscribe(tracker.OnEventSetChanged)

	log.Printf("started: source=%s refresh=%v broker=%s heartbeat=%v", source, refresh, broker, heartbeat)

	refreshTicker := time.NewTicker(refresh)
	defer refreshTicker.Stop()

	var heartbeatTick <-chan time.Time
	if heartbeat > 0 {
		heartbeatTicker := time.NewTicker(heartbeat)
		defer heartbeatTicker.Stop()
		heartbeatTick = heartbeatTicker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(eventStore, publisher, publisher, statusTracker, fetchTimeout, time.Now, refreshTicker.C, heartbeatTick, stateCh, sigCh)
}

func runLoop(eventStore *store.Store, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, statusTracker *status.Tracker, fetchTimeout time.Duration, now func() time.Time, refreshTick, heartbeatTick <-chan time.Time, stateCh <-chan calendar.State, sig <-chan os.Signal) error {
	refreshDone := make(chan error, 1)
	refreshing := false

	// The fetch may block for its full timeout; it always runs off the
	// loop, with a single-flight guard.
	startRefresh := func() {
		if refreshing {
			log.Printf("refresh already in flight, skipping")
			return
		}
		refreshing = true
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			refreshDone <- eventStore.Refresh(ctx, now())
		}()
	}

	// Initial load before any derived value is trusted
	startRefresh()

	var prevInside, havePrev bool

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				statusTracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := statusTracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-refreshTick:
			startRefresh()

		case err := <-refreshDone:
			refreshing = false
			t := now()
			if err != nil {
				if scraper.IsConnectivity(err) {
					log.Printf("calendar refresh failed (connectivity, keeping previous data): %v", err)
				} else {
					log.Printf("calendar refresh failed (structural, keeping previous data): %v", err)
				}
				statusTracker.RecordRefreshError(t, err)
			} else {
				cl, h := eventStore.Current().Counts()
				log.Printf("calendar refreshed: %d candle lighting, %d havdalah times", cl, h)
				statusTracker.RecordRefreshOK(t, cl, h)
			}
			if mqttStatus != nil {
				statusTracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

		case state := <-stateCh:
			t := now()
			set := eventStore.Current()
			nextCL := set.Next(calendar.CandleLighting, t)
			nextH := set.Next(calendar.Havdalah, t)
			statusTracker.UpdateState(state, nextCL, nextH)

			if havePrev && state.Inside != prevInside {
				eventType := mqtt.EventIssurMelachaEnd
				if state.Inside {
					eventType = mqtt.EventIssurMelachaBegin
				}
				log.Printf("event: %s", eventType)
				if err := publisher.PublishEvent(mqtt.Event{Timestamp: t, Type: eventType}); err != nil {
					log.Printf("publish event error: %v", err)
					// Don't crash on publish failure
				}
			}
			prevInside = state.Inside
			havePrev = true

			msg := mqtt.StateMessage{
				Timestamp:          t,
				IssurMelacha:       state.Inside,
				NextCandleLighting: nextCL,
				NextHavdalah:       nextH,
				LastCandleLighting: state.LastCandleLighting,
				LastHavdalah:       state.LastHavdalah,
			}
			if err := publisher.PublishState(msg); err != nil {
				log.Printf("publish state error: %v", err)
			}
			if mqttStatus != nil {
				statusTracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

		case <-heartbeatTick:
			if mqttStatus != nil {
				statusTracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := statusTracker.Snapshot()
			log.Printf("heartbeat: uptime=%v refresh_ok=%d refresh_failed=%d issur_melacha=%v",
				snap.Uptime().Truncate(time.Second), snap.RefreshOK, snap.RefreshFailed, snap.Inside)
			hbEvent := mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

func buildFetcher(source, calURL, zip string, timeout time.Duration) (scraper.Fetcher, error) {
	switch source {
	case "scrape":
		return scraper.NewScraper(calURL, timeout), nil
	case "hebcal":
		return scraper.NewHebcal(scraper.HebcalURL, zip, timeout), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want \"scrape\" or \"hebcal\")", source)
	}
}

// printCalendar fetches once and prints both event lists.
func printCalendar(fetcher scraper.Fetcher, timeout time.Duration, now time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	events, err := fetcher.Fetch(ctx, now)
	if err != nil {
		return fmt.Errorf("fetch calendar: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })

	fmt.Println("\nCandle Lighting Times:")
	fmt.Println("=====================")
	for _, e := range events {
		if e.Kind == calendar.CandleLighting {
			fmt.Println(e.At.Format("2006-01-02 3:04PM"))
		}
	}

	fmt.Println("\nHavdalah Times:")
	fmt.Println("==============")
	for _, e := range events {
		if e.Kind == calendar.Havdalah {
			fmt.Println(e.At.Format("2006-01-02 3:04PM"))
		}
	}
	return nil
}
