// Command recostatsd starts the identifier statistics service.
//
// It tracks co-occurrence counts over submitted identifier lists and
// per-identifier counts over rotating hour/day windows, persists the window
// counters to a JSON snapshot, and exposes an HTTP API:
//
//	POST /lists            submit an identifier list
//	GET  /lists/{id}       co-occurrence counts for one identifier
//	POST /counters         increment an identifier's window counters
//	GET  /counters         all 16 window buckets
//	GET  /counters/scores  weighted trending scores
//
// Usage:
//
//	go run ./cmd/recostatsd [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediatrack/recostats/internal/archive"
	"github.com/mediatrack/recostats/internal/cooccur"
	"github.com/mediatrack/recostats/internal/ingest"
	"github.com/mediatrack/recostats/internal/scoring"
	"github.com/mediatrack/recostats/internal/window"
	"github.com/mediatrack/recostats/pkg/config"
	"github.com/mediatrack/recostats/pkg/health"
	"github.com/mediatrack/recostats/pkg/kafka"
	"github.com/mediatrack/recostats/pkg/logger"
	"github.com/mediatrack/recostats/pkg/metrics"
	"github.com/mediatrack/recostats/pkg/middleware"
	"github.com/mediatrack/recostats/pkg/postgres"
	pkgredis "github.com/mediatrack/recostats/pkg/redis"
)

// main boots the service: it loads the counter snapshot, starts the rotation
// scheduler and any enabled integrations (Kafka ingestion, Redis score cache,
// Postgres archive), and serves the HTTP API. Graceful shutdown is triggered
// by SIGINT/SIGTERM and ends with a final best-effort snapshot persist.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting recostats service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared state: independent lock domains, constructed once and handed to
	// both the request handlers and the background tasks.
	counter := cooccur.NewCounter()
	store := window.Load(cfg.Counters.SnapshotPath)
	scheduler := window.NewScheduler(store, cfg.Counters.PersistInterval.Std())

	checker := health.NewChecker()
	checker.Register("snapshot_storage", snapshotStorageCheck(cfg.Counters.SnapshotPath))
	checker.Register("rotation_scheduler", schedulerCheck(scheduler, cfg.Counters.PersistInterval.Std()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Run(gctx) })

	// Optional Redis cache for trending scores.
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	scoreSvc := scoring.NewService(
		scoring.NewScorer(cfg.Scoring.BucketWeights),
		store, redisClient, cfg.Scoring.CacheTTL.Std(),
	)

	// Optional Kafka ingestion of list/increment events.
	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka, ingest.HandleEvent(counter, store))
		g.Go(func() error { return consumer.Start(gctx) })
		slog.Info("kafka ingestion started", "topic", cfg.Kafka.Topic)
	}

	// Optional periodic snapshot archival to Postgres.
	if cfg.Archive.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := db.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		archiveStore := archive.NewStore(db)
		g.Go(func() error { return archiveStore.Run(gctx, store, cfg.Archive.Interval.Std()) })
	}

	// HTTP API.
	cooccurHandler := cooccur.NewHandler(counter)
	windowHandler := window.NewHandler(store)
	scoringHandler := scoring.NewHandler(scoreSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /lists", cooccurHandler.Submit)
	mux.HandleFunc("GET /lists/{identifier}", cooccurHandler.Query)
	mux.HandleFunc("POST /counters", windowHandler.Increment)
	mux.HandleFunc("GET /counters", windowHandler.Counters)
	mux.HandleFunc("GET /counters/scores", scoringHandler.Scores)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.RegisterDomain(metrics.DomainFuncs{
			Identifiers:    func() float64 { return float64(counter.IdentifierCount()) },
			Pairs:          func() float64 { return float64(counter.PairCount()) },
			Submissions:    func() float64 { return float64(counter.SubmissionCount()) },
			Increments:     func() float64 { return float64(store.Stats().Increments) },
			HourRotations:  func() float64 { return float64(store.Stats().HourRotations) },
			DayRotations:   func() float64 { return float64(store.Stats().DayRotations) },
			PersistsOK:     func() float64 { return float64(store.Stats().PersistsOK) },
			PersistsFailed: func() float64 { return float64(store.Stats().PersistsFailed) },
			Dirty: func() float64 {
				if store.Dirty() {
					return 1
				}
				return 0
			},
		})
		chain = middleware.Metrics(m)(chain)
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout.Std())(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("recostats service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	stop()
	if err := g.Wait(); err != nil {
		slog.Error("background task error", "error", err)
	}
	if redisClient != nil {
		hits, misses := scoreSvc.CacheStats()
		slog.Info("score cache summary", "hits", hits, "misses", misses)
	}

	// Best-effort flush of unpersisted window counters before exit.
	store.FinalPersist()
	slog.Info("recostats service stopped")
}

// schedulerCheck reports the rotation scheduler as down when its loop has not
// run for several persist intervals.
func schedulerCheck(s *window.Scheduler, persistInterval time.Duration) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		idle := time.Since(s.LastActive())
		if idle > 3*persistInterval {
			return health.ComponentHealth{
				Status:  health.StatusDown,
				Message: fmt.Sprintf("scheduler idle for %s", idle.Round(time.Second)),
			}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	}
}

// snapshotStorageCheck probes that the snapshot file's directory exists and
// is writable.
func snapshotStorageCheck(path string) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		dir := filepath.Dir(path)
		probe, err := os.CreateTemp(dir, ".recostats-probe-*")
		if err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		probe.Close()
		os.Remove(probe.Name())
		return health.ComponentHealth{Status: health.StatusUp}
	}
}
