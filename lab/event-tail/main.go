package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

type event struct {
	ID         uint64 `json:"id"`
	Type       string `json:"type"`
	Payload    string `json:"payload"`
	Tick       uint64 `json:"tick"`
	RecordedAt string `json:"recorded_at"`
}

type eventPage struct {
	Events []event `json:"events"`
}

type clockReading struct {
	Tick uint64 `json:"tick"`
}

func main() {
	after := flag.Uint64("after", 0, "start tailing after this event id")
	interval := flag.Duration("interval", 2*time.Second, "poll interval")
	flag.Parse()

	base := getenv("LEDGER_URL", "http://localhost:8080")
	key := os.Getenv("SERVICE_KEY")
	if key == "" {
		log.Fatal("SERVICE_KEY is required; the ledger must list its bcrypt hash in SERVICE_KEY_HASHES")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	if tick, err := readClock(client, base, key); err != nil {
		log.Printf("clock read failed: %v", err)
	} else {
		log.Printf("ledger clock at tick %d", tick)
	}

	log.Printf("tailing events from %s after id %d every %s", base, *after, *interval)

	cursor := *after
	for {
		page, err := fetchEvents(client, base, key, cursor)
		if err != nil {
			log.Printf("fetch failed: %v", err)
			time.Sleep(*interval)
			continue
		}

		for _, e := range page.Events {
			log.Printf("event %d  tick=%d  %-24s %s", e.ID, e.Tick, e.Type, e.Payload)
			cursor = e.ID
		}

		// A full page means more may be waiting; only idle when caught up.
		if len(page.Events) < pageSize {
			time.Sleep(*interval)
		}
	}
}

const pageSize = 100

func fetchEvents(client *http.Client, base, key string, after uint64) (*eventPage, error) {
	q := url.Values{}
	q.Set("after_id", strconv.FormatUint(after, 10))
	q.Set("limit", strconv.Itoa(pageSize))

	body, err := get(client, base+"/internal/events?"+q.Encode(), key)
	if err != nil {
		return nil, err
	}

	var page eventPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return &page, nil
}

func readClock(client *http.Client, base, key string) (uint64, error) {
	body, err := get(client, base+"/internal/clock", key)
	if err != nil {
		return 0, err
	}

	var reading clockReading
	if err := json.Unmarshal(body, &reading); err != nil {
		return 0, fmt.Errorf("decode clock: %w", err)
	}
	return reading.Tick, nil
}

func get(client *http.Client, rawURL, key string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Service-Key", key)
	req.Header.Set("X-Service-Name", "lab-event-tail")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", rawURL, resp.StatusCode, buf)
	}
	return buf, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
