package window

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")

	s := NewStore(path)
	s.Increment("A")
	s.Increment("A")
	s.Increment("B")
	s.RotateHour()
	s.Increment("C")
	if err := s.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if s.Dirty() {
		t.Error("dirty flag must clear after successful persist")
	}

	loaded := Load(path)
	if loaded.Dirty() {
		t.Error("dirty flag must be false immediately after load")
	}
	if !reflect.DeepEqual(s.Snapshot(), loaded.Snapshot()) {
		t.Errorf("round-trip mismatch:\npersisted %v\nloaded    %v", s.Snapshot(), loaded.Snapshot())
	}
}

func TestPersistSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	s := NewStore(path)

	if err := s.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("clean store must not write a snapshot file")
	}
}

func TestPersistFailureKeepsDirty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing-dir", "counters.json"))
	s.Increment("A")

	if err := s.Persist(); err == nil {
		t.Fatal("expected persist error for unwritable path")
	}
	if !s.Dirty() {
		t.Error("dirty flag must stay set after a failed persist")
	}
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "nope.json"))
	if s.Dirty() {
		t.Error("fresh store must not be dirty")
	}
	for name, bucket := range s.Snapshot() {
		if len(bucket) != 0 {
			t.Errorf("bucket %s = %v, want empty", name, bucket)
		}
	}
}

func TestLoadMalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(path)
	if s.Dirty() {
		t.Error("store must not be dirty after failed load")
	}
	if got := s.Snapshot()["this_hour"]; len(got) != 0 {
		t.Errorf("this_hour = %v, want empty", got)
	}
}

// Unknown keys in the snapshot document are ignored and missing buckets stay
// empty; there is no schema version or migration.
func TestLoadToleratesUnknownAndMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	doc := map[string]map[string]uint64{
		"this_hour":    {"A": 2},
		"some_new_key": {"B": 9},
	}
	data, _ := json.Marshal(doc)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(path)
	snap := s.Snapshot()
	if snap["this_hour"]["A"] != 2 {
		t.Errorf("this_hour = %v, want A:2", snap["this_hour"])
	}
	if len(snap["yesterday"]) != 0 {
		t.Errorf("yesterday = %v, want empty", snap["yesterday"])
	}
	if _, ok := snap["some_new_key"]; ok {
		t.Error("unknown key must not survive the load")
	}
}

func TestFinalPersistSkipsWhenLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	s := NewStore(path)
	s.Increment("A")

	s.mu.Lock()
	s.FinalPersist() // must abandon, not block
	s.mu.Unlock()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("final persist must not write while the lock is held elsewhere")
	}

	s.FinalPersist()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("final persist with free lock should write snapshot: %v", err)
	}
	if s.Dirty() {
		t.Error("dirty flag must clear after final persist")
	}
}
