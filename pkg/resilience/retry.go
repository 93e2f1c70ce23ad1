package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig controls attempt count and backoff growth. Zero values fall
// back to the defaults.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction <= 0 {
		cfg.JitterFraction = 0.1
	}
	return cfg
}

// Retry runs fn up to cfg.MaxAttempts times with jittered exponential
// backoff between failures. It stops early when ctx is cancelled.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	log := slog.Default().With("component", "retry", "operation", name)

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info("recovered after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, cfg.MaxAttempts, lastErr)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s retry aborted: %w", name, err)
		}

		wait := jitter(delay, cfg.JitterFraction)
		log.Warn("attempt failed, backing off",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"backoff", wait,
			"error", lastErr,
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("%s retry aborted during backoff: %w", name, ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// jitter spreads a delay by up to ±fraction so synchronized callers do not
// retry in lockstep.
func jitter(d time.Duration, fraction float64) time.Duration {
	offset := (2*rand.Float64() - 1) * fraction * float64(d)
	spread := time.Duration(float64(d) + offset)
	if spread <= 0 {
		return d
	}
	return spread
}
