package archive

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/mediatrack/recostats/internal/window"
	"github.com/mediatrack/recostats/pkg/config"
	"github.com/mediatrack/recostats/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(testPostgresConfig())
	if err != nil {
		t.Skipf("skipping archive test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.DB.Exec(`CREATE TABLE IF NOT EXISTS counter_snapshots (
		id BIGSERIAL PRIMARY KEY,
		data JSONB NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		t.Fatalf("creating counter_snapshots table: %v", err)
	}
	t.Cleanup(func() { db.DB.Exec(`TRUNCATE counter_snapshots`) })
	return db
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "recostats_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "recostats"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: config.Duration(5 * time.Minute),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	db := skipIfNoPostgres(t)
	store := NewStore(db)
	ctx := context.Background()

	ws := window.NewStore(filepath.Join(t.TempDir(), "counters.json"))
	ws.Increment("A")
	ws.Increment("B")
	snap := ws.Snapshot()

	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := store.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("round-trip mismatch:\nsaved  %v\nloaded %v", snap, got)
	}
}

func TestLatestSnapshotEmpty(t *testing.T) {
	db := skipIfNoPostgres(t)
	store := NewStore(db)

	got, err := store.LatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if got != nil {
		t.Errorf("LatestSnapshot on empty table = %v, want nil", got)
	}
}

func TestListSnapshots(t *testing.T) {
	db := skipIfNoPostgres(t)
	store := NewStore(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ws := window.NewStore(filepath.Join(t.TempDir(), "counters.json"))
		ws.Increment("A")
		if err := store.SaveSnapshot(ctx, ws.Snapshot()); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	got, err := store.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListSnapshots returned %d snapshots, want 2", len(got))
	}
}
