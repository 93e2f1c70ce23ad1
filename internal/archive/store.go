// Package archive provides long-term storage of rotating counter snapshots in
// PostgreSQL, so historical windows survive beyond the 13-day ring.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mediatrack/recostats/internal/window"
	apperrors "github.com/mediatrack/recostats/pkg/errors"
	"github.com/mediatrack/recostats/pkg/postgres"
	"github.com/mediatrack/recostats/pkg/resilience"
)

// Store persists counter snapshots in PostgreSQL.
//
// It requires a `counter_snapshots` table:
//
//	CREATE TABLE counter_snapshots (
//	    id          BIGSERIAL PRIMARY KEY,
//	    data        JSONB NOT NULL,
//	    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type Store struct {
	db      *postgres.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewStore creates a new snapshot archive store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:      db,
		breaker: resilience.NewCircuitBreaker("snapshot-archive", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "snapshot-archive"),
	}
}

// SaveSnapshot persists one snapshot to the database, retrying transient
// failures with backoff. A circuit breaker sheds writes while the database
// stays unreachable.
func (s *Store) SaveSnapshot(ctx context.Context, snap window.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	err = s.breaker.Execute(func() error {
		return resilience.Retry(ctx, "archive-save", resilience.RetryConfig{}, func() error {
			_, execErr := s.db.DB.ExecContext(ctx,
				`INSERT INTO counter_snapshots (data, captured_at) VALUES ($1, $2)`,
				data, time.Now().UTC(),
			)
			return execErr
		})
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.New(apperrors.ErrArchiveUnavailable, http.StatusServiceUnavailable, "archive writes suspended")
	}
	if err != nil {
		return fmt.Errorf("saving counter snapshot: %w", err)
	}

	s.logger.Info("counter snapshot archived",
		"this_hour_size", len(snap["this_hour"]),
		"today_size", len(snap["today"]),
	)
	return nil
}

// LatestSnapshot loads the most recent archived snapshot. Returns nil, nil if
// no snapshots exist yet.
func (s *Store) LatestSnapshot(ctx context.Context) (window.Snapshot, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM counter_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var snap window.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns the last N archived snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]window.Snapshot, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM counter_snapshots ORDER BY captured_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []window.Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var snap window.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.logger.Warn("skipping corrupt archived snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// Run archives the store's snapshot every interval until ctx is cancelled,
// with a final archive attempt on shutdown.
func (s *Store) Run(ctx context.Context, store *window.Store, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("periodic snapshot archival started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			if err := s.SaveSnapshot(ctx, store.Snapshot()); err != nil {
				s.logger.Error("periodic snapshot archive failed", "error", err)
			}
		case <-ctx.Done():
			err := resilience.WithTimeout(context.Background(), 5*time.Second, "final-archive", func(c context.Context) error {
				return s.SaveSnapshot(c, store.Snapshot())
			})
			if err != nil {
				s.logger.Error("final snapshot archive failed", "error", err)
			}
			return nil
		}
	}
}
