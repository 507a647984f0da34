package places

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/octobees/leadscout/api/internal/retry"
)

const (
	defaultDetailBatchSize  = 10
	defaultDetailBatchDelay = 200 * time.Millisecond
)

// DetailFetcher fetches supplementary fields for one place id.
type DetailFetcher interface {
	Details(ctx context.Context, placeID string) (*Result, error)
}

// Enhancer fills phone and website fields on raw search stubs by calling the
// details endpoint in bounded concurrent batches.
type Enhancer struct {
	fetcher    DetailFetcher
	batchSize  int
	batchDelay time.Duration
	retryOpts  []retry.Option
	sleep      func(ctx context.Context, d time.Duration) error
}

// EnhancerOption configures an Enhancer.
type EnhancerOption func(*Enhancer)

// WithBatchSize overrides the per-batch concurrency (default 10).
func WithBatchSize(n int) EnhancerOption {
	return func(e *Enhancer) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithBatchDelay overrides the pause between batches.
func WithBatchDelay(d time.Duration) EnhancerOption {
	return func(e *Enhancer) { e.batchDelay = d }
}

// WithEnhancerRetryOptions forwards options to the per-item retry wrapper.
func WithEnhancerRetryOptions(opts ...retry.Option) EnhancerOption {
	return func(e *Enhancer) { e.retryOpts = opts }
}

// WithEnhancerSleep overrides the inter-batch sleep for tests.
func WithEnhancerSleep(fn func(ctx context.Context, d time.Duration) error) EnhancerOption {
	return func(e *Enhancer) { e.sleep = fn }
}

// NewEnhancer wires a detail enhancer around the given fetcher.
func NewEnhancer(fetcher DetailFetcher, opts ...EnhancerOption) *Enhancer {
	e := &Enhancer{
		fetcher:    fetcher,
		batchSize:  defaultDetailBatchSize,
		batchDelay: defaultDetailBatchDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance returns the input stubs with phone/website filled in where the
// details endpoint answered. A failed detail fetch degrades that item to its
// original stub; it never fails the batch.
func (e *Enhancer) Enhance(ctx context.Context, stubs []Result) ([]Result, error) {
	if len(stubs) == 0 {
		return stubs, nil
	}

	enhanced := make([]Result, len(stubs))
	copy(enhanced, stubs)

	for start := 0; start < len(stubs); start += e.batchSize {
		if start > 0 && e.batchDelay > 0 {
			if err := e.sleep(ctx, e.batchDelay); err != nil {
				return enhanced, err
			}
		}

		end := start + e.batchSize
		if end > len(stubs) {
			end = len(stubs)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			group.Go(func() error {
				detail, err := retry.Do(groupCtx, func(ctx context.Context) (*Result, error) {
					return e.fetcher.Details(ctx, enhanced[i].PlaceID)
				}, e.retryOpts...)
				if err != nil {
					log.Printf("detail fetch degraded place_id=%s err=%v", enhanced[i].PlaceID, err)
					return nil
				}
				if detail.Phone != "" {
					enhanced[i].Phone = detail.Phone
				}
				if detail.Website != "" {
					enhanced[i].Website = detail.Website
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return enhanced, err
		}
	}

	return enhanced, nil
}
