package places

import (
	"context"
	"testing"
	"time"

	"github.com/octobees/leadscout/api/internal/apierr"
	"github.com/octobees/leadscout/api/internal/retry"
)

type stubFetcher struct {
	detailsFunc func(ctx context.Context, placeID string) (*Result, error)
}

func (s *stubFetcher) Details(ctx context.Context, placeID string) (*Result, error) {
	return s.detailsFunc(ctx, placeID)
}

func TestEnhanceFillsContactFields(t *testing.T) {
	fetcher := &stubFetcher{
		detailsFunc: func(ctx context.Context, placeID string) (*Result, error) {
			return &Result{PlaceID: placeID, Phone: "+1 512-555-0101", Website: "https://" + placeID + ".example.com"}, nil
		},
	}

	enhancer := NewEnhancer(fetcher, WithBatchDelay(0))
	stubs := []Result{
		{PlaceID: "p1", Name: "Alpha"},
		{PlaceID: "p2", Name: "Beta", Website: "https://existing.example.com"},
	}

	enhanced, err := enhancer.Enhance(context.Background(), stubs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enhanced[0].Phone != "+1 512-555-0101" || enhanced[0].Website != "https://p1.example.com" {
		t.Fatalf("expected contact fields filled, got %+v", enhanced[0])
	}
	if enhanced[1].Name != "Beta" {
		t.Fatalf("expected stub fields preserved, got %+v", enhanced[1])
	}
	// Inputs must never be mutated.
	if stubs[0].Phone != "" {
		t.Fatalf("expected original stub untouched, got %+v", stubs[0])
	}
}

func TestEnhanceDegradesToStubOnFailure(t *testing.T) {
	fetcher := &stubFetcher{
		detailsFunc: func(ctx context.Context, placeID string) (*Result, error) {
			if placeID == "broken" {
				return nil, apierr.New(apierr.KindUnavailable, "places_details", "provider down")
			}
			return &Result{PlaceID: placeID, Phone: "+1 512-555-0199"}, nil
		},
	}

	enhancer := NewEnhancer(fetcher,
		WithBatchDelay(0),
		WithEnhancerRetryOptions(retry.WithMaxRetries(1)),
	)

	stubs := []Result{
		{PlaceID: "broken", Name: "Broken Biz", Address: "1 Main St"},
		{PlaceID: "ok", Name: "Working Biz"},
	}

	enhanced, err := enhancer.Enhance(context.Background(), stubs)
	if err != nil {
		t.Fatalf("a failed item must not fail the batch: %v", err)
	}
	if len(enhanced) != 2 {
		t.Fatalf("expected both items returned, got %d", len(enhanced))
	}
	if enhanced[0].Phone != "" || enhanced[0].Name != "Broken Biz" {
		t.Fatalf("expected failed item kept as stub, got %+v", enhanced[0])
	}
	if enhanced[1].Phone != "+1 512-555-0199" {
		t.Fatalf("expected working item enhanced, got %+v", enhanced[1])
	}
}

func TestEnhanceBatchesWithDelay(t *testing.T) {
	calls := 0
	fetcher := &stubFetcher{
		detailsFunc: func(ctx context.Context, placeID string) (*Result, error) {
			calls++
			return &Result{PlaceID: placeID}, nil
		},
	}

	var sleeps []time.Duration
	enhancer := NewEnhancer(fetcher,
		WithBatchSize(2),
		WithBatchDelay(100*time.Millisecond),
		WithEnhancerSleep(func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}),
	)

	stubs := make([]Result, 5)
	for i := range stubs {
		stubs[i] = Result{PlaceID: string(rune('a' + i))}
	}

	if _, err := enhancer.Enhance(context.Background(), stubs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected 5 detail calls, got %d", calls)
	}
	// Three batches of two means two inter-batch pauses.
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 inter-batch sleeps, got %d", len(sleeps))
	}
}

func TestEnhanceEmptyInput(t *testing.T) {
	enhancer := NewEnhancer(&stubFetcher{detailsFunc: func(ctx context.Context, placeID string) (*Result, error) {
		t.Fatalf("no calls expected for empty input")
		return nil, nil
	}})
	if out, err := enhancer.Enhance(context.Background(), nil); err != nil || len(out) != 0 {
		t.Fatalf("expected empty passthrough, got %v %v", out, err)
	}
}
