package window

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads the snapshot file at path and returns a Store initialized from
// it. On any failure (missing file, malformed content) it falls back to an
// empty store with the dirty flag clear; a load failure is never fatal.
func Load(path string) *Store {
	s := NewStore(path)
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Info("no counter snapshot loaded, starting empty", "path", path, "reason", err)
		return s
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("counter snapshot malformed, starting empty", "path", path, "error", err)
		return s
	}
	s.restore(snap)
	s.logger.Info("counter snapshot loaded", "path", path)
	return s
}

// Persist writes the full snapshot to disk if the store is dirty. On success
// the dirty flag is cleared; on failure it stays set so the next evaluation
// cycle retries. The write happens while the store lock is held.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	if !s.dirty {
		return nil
	}
	if err := s.writeSnapshot(s.snapshotLocked()); err != nil {
		s.stats.PersistsFailed++
		s.logger.Error("counter snapshot persist failed", "path", s.path, "error", err)
		return err
	}
	s.dirty = false
	s.stats.PersistsOK++
	s.logger.Info("counter snapshot persisted", "path", s.path)
	return nil
}

// writeSnapshot serializes the snapshot to a temp file and renames it over
// the target so readers never observe a partial document.
func (s *Store) writeSnapshot(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot file: %w", err)
	}
	return nil
}

// FinalPersist runs the best-effort shutdown flush. If the store lock cannot
// be acquired immediately the attempt is abandoned with a logged message; the
// process exits regardless, so blocking here is never acceptable.
func (s *Store) FinalPersist() {
	if !s.mu.TryLock() {
		s.logger.Error("skipping final counter persist, store lock unavailable")
		return
	}
	defer s.mu.Unlock()
	if !s.dirty {
		s.logger.Info("no pending counter changes to persist on shutdown")
		return
	}
	if err := s.persistLocked(); err == nil {
		s.logger.Info("final counter persist completed")
	}
}
