package scoring

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mediatrack/recostats/internal/window"
	apperrors "github.com/mediatrack/recostats/pkg/errors"
	pkgredis "github.com/mediatrack/recostats/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "recostats:scores:trending"

// Service computes trending scores over the counter store, optionally caching
// results in Redis. Concurrent cache misses are collapsed into a single
// computation via singleflight.
type Service struct {
	scorer *Scorer
	store  *window.Store
	cache  *pkgredis.Client // nil when caching is disabled
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewService creates a Service. cache may be nil, in which case every call
// recomputes from the live snapshot.
func NewService(scorer *Scorer, store *window.Store, cache *pkgredis.Client, ttl time.Duration) *Service {
	return &Service{
		scorer: scorer,
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: slog.Default().With("component", "scoring-service"),
	}
}

// Trending returns the current weighted scores, newest counts first.
func (s *Service) Trending(ctx context.Context) ([]Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable, "trending computation cancelled: %v", err)
	}
	if s.cache == nil {
		return s.scorer.Score(s.store.Snapshot()), nil
	}

	if scores, ok := s.cacheGet(ctx); ok {
		s.hits.Add(1)
		return scores, nil
	}
	s.misses.Add(1)

	result, err, _ := s.group.Do(cacheKey, func() (any, error) {
		scores := s.scorer.Score(s.store.Snapshot())
		s.cacheSet(ctx, scores)
		return scores, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Score), nil
}

func (s *Service) cacheGet(ctx context.Context) ([]Score, bool) {
	data, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			s.logger.Error("score cache get failed", "error", err)
		}
		return nil, false
	}
	var scores []Score
	if err := json.Unmarshal([]byte(data), &scores); err != nil {
		s.logger.Error("score cache unmarshal failed", "error", err)
		return nil, false
	}
	return scores, true
}

func (s *Service) cacheSet(ctx context.Context, scores []Score) {
	data, err := json.Marshal(scores)
	if err != nil {
		s.logger.Error("score cache marshal failed", "error", err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey, string(data), s.ttl); err != nil {
		s.logger.Error("score cache set failed", "error", err)
	}
}

// CacheStats returns cache hit and miss counts since startup.
func (s *Service) CacheStats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}
