package ingest

import (
	"context"
	"log/slog"

	"github.com/mediatrack/recostats/internal/cooccur"
	"github.com/mediatrack/recostats/internal/window"
	"github.com/mediatrack/recostats/pkg/kafka"
)

// HandleEvent returns a kafka.MessageHandler that dispatches decoded stats
// events into the counter and store. Undecodable or unknown events are
// logged and skipped, never retried.
func HandleEvent(counter *cooccur.Counter, store *window.Store) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[StatsEvent](value)
		if err != nil {
			logger.Error("failed to decode stats event", "error", err)
			return nil
		}
		switch event.Type {
		case EventList:
			counter.Submit(event.Identifiers)
		case EventIncrement:
			if event.ID != "" {
				store.Increment(event.ID)
			}
		default:
			logger.Warn("unknown stats event type", "type", event.Type)
		}
		return nil
	}
}
