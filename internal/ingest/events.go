// Package ingest consumes statistics events from Kafka and applies them to
// the same counters the HTTP API mutates, so upstream producers can feed the
// service without going through HTTP.
package ingest

// EventType discriminates the payload of a StatsEvent.
type EventType string

const (
	EventList      EventType = "list"
	EventIncrement EventType = "increment"
)

// StatsEvent is the wire format on the stats-events topic. Exactly one of
// Identifiers (for list events) or ID (for increment events) is meaningful.
type StatsEvent struct {
	Type        EventType `json:"type"`
	Identifiers []string  `json:"identifiers,omitempty"`
	ID          string    `json:"id,omitempty"`
}
