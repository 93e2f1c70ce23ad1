package window

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Scheduler drives bucket rotation and snapshot persistence in the
// background. Instead of polling, it sleeps until the next wall-clock hour
// boundary to evaluate rotations; a separate ticker flushes the dirty flag to
// disk between boundaries. Clock anomalies (DST shifts, manual adjustments)
// may cause a rotation to skip or fire twice; that is accepted, not
// corrected.
type Scheduler struct {
	store           *Store
	persistInterval time.Duration
	logger          *slog.Logger

	now func() time.Time

	lastHour int
	lastDay  int

	// unix nanos of the last loop activity, read by the health probe
	lastActive atomic.Int64
}

// NewScheduler creates a Scheduler for the store. persistInterval bounds how
// long a dirty store can go without being flushed.
func NewScheduler(store *Store, persistInterval time.Duration) *Scheduler {
	if persistInterval <= 0 {
		persistInterval = time.Minute
	}
	s := &Scheduler{
		store:           store,
		persistInterval: persistInterval,
		logger:          slog.Default().With("component", "rotation-scheduler"),
		now:             time.Now,
	}
	s.lastActive.Store(time.Now().UnixNano())
	return s
}

// LastActive returns the time of the scheduler's most recent loop iteration.
// Before Run starts it reports the construction time.
func (s *Scheduler) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Run executes the rotation loop until ctx is cancelled. It is started once
// at process startup and has no other cancellation mechanism.
func (s *Scheduler) Run(ctx context.Context) error {
	start := s.now()
	s.lastHour = start.Hour()
	s.lastDay = start.Day()

	boundary := time.NewTimer(time.Until(nextHourBoundary(start)))
	defer boundary.Stop()
	persist := time.NewTicker(s.persistInterval)
	defer persist.Stop()

	s.logger.Info("rotation scheduler started",
		"next_boundary", nextHourBoundary(start),
		"persist_interval", s.persistInterval,
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rotation scheduler stopping", "reason", ctx.Err())
			return nil
		case <-boundary.C:
			now := s.now()
			s.evaluate(now)
			s.lastActive.Store(time.Now().UnixNano())
			boundary.Reset(time.Until(nextHourBoundary(now)))
		case <-persist.C:
			if err := s.store.Persist(); err != nil {
				s.logger.Error("periodic persist failed", "error", err)
			}
			s.lastActive.Store(time.Now().UnixNano())
		}
	}
}

// evaluate compares the current hour and day against the last observed values
// and fires the corresponding rotations. The rotation decision and the
// follow-up persist run under one store lock acquisition, so the disk write
// blocks concurrent increments for its duration.
func (s *Scheduler) evaluate(now time.Time) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rotated := false
	if now.Hour() != s.lastHour {
		s.store.rotateHourLocked()
		rotated = true
	}
	if now.Day() != s.lastDay {
		s.store.rotateDayLocked()
		rotated = true
	}
	// Observed hour and day advance whether or not a rotation fired.
	s.lastHour = now.Hour()
	s.lastDay = now.Day()

	if rotated || s.store.dirty {
		if err := s.store.persistLocked(); err != nil {
			s.logger.Error("persist after rotation failed", "error", err)
		}
	}
}

// nextHourBoundary returns the first instant strictly after now at which a
// new wall-clock hour begins, with a small slack so the wakeup lands past the
// boundary. Computed in now's location so local-time hour and day changes
// line up.
func nextHourBoundary(now time.Time) time.Time {
	top := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	return top.Add(time.Hour + time.Second)
}
