// Command loadgen generates synthetic identifier traffic against a running
// recostatsd instance, either over HTTP or by publishing events to the Kafka
// stats topic.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mediatrack/recostats/internal/ingest"
	"github.com/mediatrack/recostats/pkg/config"
	"github.com/mediatrack/recostats/pkg/kafka"
)

var identifiers = []string{
	"ard:Y3JpZDovL2Rhc2Vyc3RlLmRlL3RhZ2Vzc2NoYXUyNA",
	"zdf:zdf-magazin-royale-102",
	"arte:RC-026195_de",
	"3sat:kulturzeit-104",
	"ard:crid-maischberger-2024",
	"zdf:heute-journal-100",
	"arte:RC-014082_de",
	"ard:tatort-muenster-1312",
	"zdf:terra-x-history-220",
	"3sat:nano-spezial-77",
}

type stats struct {
	requests atomic.Int64
	errors   atomic.Int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:3030", "base URL of the recostats service")
	mode := flag.String("mode", "http", "delivery mode: http or kafka")
	brokers := flag.String("brokers", "localhost:9092", "kafka brokers (kafka mode)")
	topic := flag.String("topic", "stats-events", "kafka topic (kafka mode)")
	concurrency := flag.Int("concurrency", 5, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	fmt.Println("=== Recostats Load Generator ===")
	fmt.Printf("Mode:        %s\n", *mode)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var send func(ctx context.Context, event ingest.StatsEvent) error
	switch *mode {
	case "http":
		client := &http.Client{Timeout: 10 * time.Second}
		send = func(ctx context.Context, event ingest.StatsEvent) error {
			return sendHTTP(ctx, client, *baseURL, event)
		}
	case "kafka":
		producer := kafka.NewProducer(config.KafkaConfig{
			Brokers: strings.Split(*brokers, ","),
			Topic:   *topic,
		})
		defer producer.Close()
		send = func(ctx context.Context, event ingest.StatsEvent) error {
			return producer.Publish(ctx, kafka.Event{Key: eventKey(event), Value: event})
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}

	s := &stats{}
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				s.requests.Add(1)
				if err := send(ctx, randomEvent(rng)); err != nil && ctx.Err() == nil {
					s.errors.Add(1)
				}
			}
		}(int64(i))
	}
	wg.Wait()

	total := s.requests.Load()
	fmt.Printf("Requests: %d (%.1f/s)\n", total, float64(total)/duration.Seconds())
	fmt.Printf("Errors:   %d\n", s.errors.Load())
}

// randomEvent produces a list event with 2-5 identifiers most of the time and
// a single increment otherwise, roughly matching production traffic shape.
func randomEvent(rng *rand.Rand) ingest.StatsEvent {
	if rng.Intn(3) == 0 {
		return ingest.StatsEvent{
			Type: ingest.EventIncrement,
			ID:   identifiers[rng.Intn(len(identifiers))],
		}
	}
	size := 2 + rng.Intn(4)
	list := make([]string, 0, size)
	for i := 0; i < size; i++ {
		list = append(list, identifiers[rng.Intn(len(identifiers))])
	}
	return ingest.StatsEvent{Type: ingest.EventList, Identifiers: list}
}

func eventKey(event ingest.StatsEvent) string {
	if event.Type == ingest.EventIncrement {
		return event.ID
	}
	return "list"
}

func sendHTTP(ctx context.Context, client *http.Client, baseURL string, event ingest.StatsEvent) error {
	var path string
	var payload any
	switch event.Type {
	case ingest.EventIncrement:
		path = "/counters"
		payload = map[string]string{"id": event.ID}
	default:
		path = "/lists"
		payload = map[string][]string{"identifiers": event.Identifiers}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
