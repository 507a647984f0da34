package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/octobees/leadscout/api/internal/apierr"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
	jitterFraction    = 0.25
)

// Config controls retry behaviour for a wrapped operation.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration

	// sleep is injected by tests; nil means a context-aware time.Sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option mutates a Config.
type Option func(*Config)

// WithMaxRetries overrides the retry ceiling.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithBaseDelay overrides the first backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Config) { c.BaseDelay = d }
}

// WithSleep overrides the sleep function. Tests use this to record delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Config) { c.sleep = fn }
}

// Do runs op with bounded exponential backoff. The delay before attempt n+1
// is BaseDelay * 2^n plus up to 25% random jitter. Errors classified as
// non-retryable (auth failures, malformed requests) abort immediately;
// exhausting all attempts returns the last error.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	cfg := Config{MaxRetries: defaultMaxRetries, BaseDelay: defaultBaseDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	sleep := cfg.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg.BaseDelay, attempt-1)
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !apierr.Retryable(err) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

func backoffDelay(base time.Duration, exponent int) time.Duration {
	delay := base << uint(exponent)
	jitter := time.Duration(rand.Int63n(int64(float64(delay)*jitterFraction) + 1))
	return delay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
