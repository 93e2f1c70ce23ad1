package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Server.Port != 3030 {
		t.Errorf("default server port = %d, want 3030", cfg.Server.Port)
	}
	if cfg.Counters.SnapshotPath != "rotating_counters.json" {
		t.Errorf("default snapshot path = %q", cfg.Counters.SnapshotPath)
	}
	if cfg.Counters.PersistInterval.Std() != time.Minute {
		t.Errorf("default persist interval = %v, want 1m", cfg.Counters.PersistInterval)
	}
	if w := cfg.Scoring.BucketWeights["this_hour"]; w != 1.0 {
		t.Errorf("default this_hour weight = %v, want 1.0", w)
	}
	if cfg.Kafka.Enabled || cfg.Redis.Enabled || cfg.Archive.Enabled {
		t.Error("optional integrations should default to disabled")
	}
	if cfg.Archive.Interval.Std() != 15*time.Minute {
		t.Errorf("default archive interval = %v, want 15m", cfg.Archive.Interval.Std())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 4040
counters:
  snapshotPath: /var/lib/recostats/counters.json
  persistInterval: 30s
scoring:
  bucketWeights:
    this_hour: 2.0
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 4040 {
		t.Errorf("server port = %d, want 4040", cfg.Server.Port)
	}
	if cfg.Counters.SnapshotPath != "/var/lib/recostats/counters.json" {
		t.Errorf("snapshot path = %q", cfg.Counters.SnapshotPath)
	}
	if cfg.Counters.PersistInterval.Std() != 30*time.Second {
		t.Errorf("persist interval = %v, want 30s", cfg.Counters.PersistInterval)
	}
	if cfg.Scoring.BucketWeights["this_hour"] != 2.0 {
		t.Errorf("this_hour weight = %v, want 2.0", cfg.Scoring.BucketWeights["this_hour"])
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.ReadTimeout.Std() != 30*time.Second {
		t.Errorf("read timeout = %v, want default 30s", cfg.Server.ReadTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RS_SERVER_PORT", "5050")
	t.Setenv("RS_COUNTERS_SNAPSHOT_PATH", "/tmp/counters.json")
	t.Setenv("RS_KAFKA_ENABLED", "true")
	t.Setenv("RS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RS_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 5050 {
		t.Errorf("server port = %d, want 5050", cfg.Server.Port)
	}
	if cfg.Counters.SnapshotPath != "/tmp/counters.json" {
		t.Errorf("snapshot path = %q", cfg.Counters.SnapshotPath)
	}
	if !cfg.Kafka.Enabled {
		t.Error("kafka should be enabled via env")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("kafka brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging level = %q, want warn", cfg.Logging.Level)
	}
}
