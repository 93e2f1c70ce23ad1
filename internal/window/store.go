// Package window implements the rotating time-window counter store: a fixed
// ring of hour and day buckets that accumulate per-identifier increments, a
// background scheduler that rotates them on wall-clock boundaries, and JSON
// snapshot persistence so counts survive restarts.
package window

import (
	"log/slog"
	"sync"
)

// Slot depths of the two bucket rings. Slot 0 is always the active window.
const (
	HourSlots = 3
	DaySlots  = 13
)

// Slot names as they appear in the snapshot document. Index i of the ring
// serializes under index i of these lists.
var (
	hourSlotNames = [HourSlots]string{"this_hour", "last_hour", "hour_minus_2"}
	daySlotNames  = [DaySlots]string{
		"today", "yesterday", "day_minus_2", "day_minus_3", "day_minus_4",
		"day_minus_5", "day_minus_6", "day_minus_7", "day_minus_8",
		"day_minus_9", "day_minus_10", "day_minus_11", "day_minus_12",
	}
)

// Bucket accumulates increment counts per identifier within one time window.
type Bucket map[string]uint64

// Snapshot is the externally visible representation of the store: all 16
// named buckets and nothing else. It doubles as the persisted wire format.
type Snapshot map[string]Bucket

// StoreStats counts store activity since startup, for metrics export.
type StoreStats struct {
	Increments     uint64
	HourRotations  uint64
	DayRotations   uint64
	PersistsOK     uint64
	PersistsFailed uint64
}

// Store holds the hour and day bucket rings behind a single mutex. The dirty
// flag marks mutations not yet written to the snapshot file; it is cleared
// only after a successful persist.
type Store struct {
	mu    sync.Mutex
	hours [HourSlots]Bucket
	days  [DaySlots]Bucket
	dirty bool
	stats StoreStats

	path   string
	logger *slog.Logger
}

// NewStore creates an empty Store that persists to the given snapshot path.
func NewStore(path string) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default().With("component", "window-store"),
	}
	for i := range s.hours {
		s.hours[i] = make(Bucket)
	}
	for i := range s.days {
		s.days[i] = make(Bucket)
	}
	return s
}

// Increment adds 1 to the identifier's entry in the current hour and current
// day buckets and marks the store dirty.
func (s *Store) Increment(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours[0][identifier]++
	s.days[0][identifier]++
	s.dirty = true
	s.stats.Increments++
}

// shift moves every bucket in the ring one slot toward the oldest position,
// discarding the oldest, and installs a fresh active bucket.
func shift(ring []Bucket) {
	copy(ring[1:], ring[:len(ring)-1])
	ring[0] = make(Bucket)
}

// RotateHour shifts the hour ring by one slot and clears the active bucket.
// If the active hour bucket is empty the call is a complete no-op: buckets
// and dirty flag stay untouched, so older hour buckets can remain stale
// across idle periods.
func (s *Store) RotateHour() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateHourLocked()
}

func (s *Store) rotateHourLocked() {
	if len(s.hours[0]) == 0 {
		return
	}
	shift(s.hours[:])
	s.dirty = true
	s.stats.HourRotations++
	s.logger.Info("hour buckets rotated")
}

// RotateDay shifts the day ring by one slot, discarding the oldest day, and
// clears the active bucket. Same empty-source guard as RotateHour.
func (s *Store) RotateDay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateDayLocked()
}

func (s *Store) rotateDayLocked() {
	if len(s.days[0]) == 0 {
		return
	}
	shift(s.days[:])
	s.dirty = true
	s.stats.DayRotations++
	s.logger.Info("day buckets rotated")
}

// Snapshot returns a deep copy of all 16 named buckets. The dirty flag is
// internal state and is not part of the snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := make(Snapshot, HourSlots+DaySlots)
	for i, name := range hourSlotNames {
		snap[name] = cloneBucket(s.hours[i])
	}
	for i, name := range daySlotNames {
		snap[name] = cloneBucket(s.days[i])
	}
	return snap
}

// Stats returns a copy of the activity counters.
func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Dirty reports whether the store has mutations not yet persisted.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// restore replaces the ring contents from a snapshot document. Unknown keys
// in the snapshot are ignored; missing buckets stay empty. The dirty flag is
// left false: the on-disk state already matches.
func (s *Store) restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, name := range hourSlotNames {
		if b, ok := snap[name]; ok && b != nil {
			s.hours[i] = cloneBucket(b)
		}
	}
	for i, name := range daySlotNames {
		if b, ok := snap[name]; ok && b != nil {
			s.days[i] = cloneBucket(b)
		}
	}
	s.dirty = false
}

func cloneBucket(b Bucket) Bucket {
	out := make(Bucket, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
