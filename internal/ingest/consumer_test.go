package ingest

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mediatrack/recostats/internal/cooccur"
	"github.com/mediatrack/recostats/internal/window"
)

func handleJSON(t *testing.T, counter *cooccur.Counter, store *window.Store, payload any) {
	t.Helper()
	value, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := HandleEvent(counter, store)(context.Background(), nil, value); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
}

func TestHandleListEvent(t *testing.T) {
	counter := cooccur.NewCounter()
	store := window.NewStore(filepath.Join(t.TempDir(), "counters.json"))

	handleJSON(t, counter, store, StatsEvent{Type: EventList, Identifiers: []string{"A", "B"}})

	if got := counter.Query("A")["B"]; got != 1 {
		t.Errorf("count(A,B) = %d, want 1", got)
	}
	if store.Dirty() {
		t.Error("list events must not touch the counter store")
	}
}

func TestHandleIncrementEvent(t *testing.T) {
	counter := cooccur.NewCounter()
	store := window.NewStore(filepath.Join(t.TempDir(), "counters.json"))

	handleJSON(t, counter, store, StatsEvent{Type: EventIncrement, ID: "X"})
	handleJSON(t, counter, store, StatsEvent{Type: EventIncrement, ID: "X"})

	snap := store.Snapshot()
	if snap["this_hour"]["X"] != 2 || snap["today"]["X"] != 2 {
		t.Errorf("X counts = hour %d / day %d, want 2/2",
			snap["this_hour"]["X"], snap["today"]["X"])
	}
}

func TestHandleMalformedAndUnknownEvents(t *testing.T) {
	counter := cooccur.NewCounter()
	store := window.NewStore(filepath.Join(t.TempDir(), "counters.json"))
	handler := HandleEvent(counter, store)

	// Bad JSON and unknown types are swallowed so the consumer keeps going.
	if err := handler(context.Background(), nil, []byte("{broken")); err != nil {
		t.Errorf("malformed event returned error: %v", err)
	}
	handleJSON(t, counter, store, StatsEvent{Type: "mystery", ID: "X"})

	if counter.IdentifierCount() != 0 || store.Dirty() {
		t.Error("bad events must not mutate state")
	}
}
