// Package enrich progressively upgrades basic place records with firmographic,
// legal and contact-verification data merged from independent, unreliable
// external sources under a wall-clock budget.
package enrich

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/octobees/leadscout/api/internal/entity"
	"github.com/octobees/leadscout/api/internal/retry"
)

// Mode selects the enrichment policy: estimate-only with zero extra network
// round-trips, or the full verified pipeline.
type Mode string

const (
	ModeFast          Mode = "fast"
	ModeComprehensive Mode = "comprehensive"
)

const (
	defaultBatchSize  = 5
	defaultBatchDelay = 500 * time.Millisecond
	defaultBudget     = 60 * time.Second

	sourceWebsiteProbe  = "website_probe"
	sourceWebsiteScrape = "website_scrape"
	sourcePhoneVerify   = "phone_verify"
	sourceEmailVerify   = "email_verify"
)

// Orchestrator runs enrichment passes over batches of place records.
type Orchestrator struct {
	mode        Mode
	budget      time.Duration
	batchSize   int
	batchDelay  time.Duration
	primary     FirmographicSource
	secondary   FirmographicSource
	legal       LegalSource
	prober      *WebsiteProber
	resolver    DNSResolver
	phoneRegion string
	retryOpts   []retry.Option
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPrimarySource sets the first-priority firmographic provider.
func WithPrimarySource(src FirmographicSource) Option {
	return func(o *Orchestrator) { o.primary = src }
}

// WithSecondarySource sets the fallback firmographic provider. It only fills
// fields the primary left empty.
func WithSecondarySource(src FirmographicSource) Option {
	return func(o *Orchestrator) { o.secondary = src }
}

// WithLegalSource sets the registration registry.
func WithLegalSource(src LegalSource) Option {
	return func(o *Orchestrator) { o.legal = src }
}

// WithProber overrides the website prober.
func WithProber(p *WebsiteProber) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.prober = p
		}
	}
}

// WithResolver enables the MX-record deliverability check on verified emails.
// Without a resolver email verification is format-only.
func WithResolver(r DNSResolver) Option {
	return func(o *Orchestrator) { o.resolver = r }
}

// WithBudget sets the wall-clock budget for a comprehensive pass.
func WithBudget(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.budget = d
		}
	}
}

// WithBatch overrides batch size and inter-batch delay.
func WithBatch(size int, delay time.Duration) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.batchSize = size
		}
		if delay >= 0 {
			o.batchDelay = delay
		}
	}
}

// WithPhoneRegion sets the default region for phone validation.
func WithPhoneRegion(region string) Option {
	return func(o *Orchestrator) {
		if region != "" {
			o.phoneRegion = region
		}
	}
}

// WithRetryOptions forwards options to per-source retry wrappers.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(o *Orchestrator) { o.retryOpts = opts }
}

// WithClock overrides the time source for budget accounting in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSleep overrides the inter-batch sleep for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// NewOrchestrator builds an orchestrator for the given mode. The mode is an
// explicit configuration value so both policies are testable without touching
// the process environment.
func NewOrchestrator(mode Mode, opts ...Option) *Orchestrator {
	if mode != ModeFast {
		mode = ModeComprehensive
	}
	o := &Orchestrator{
		mode:        mode,
		budget:      defaultBudget,
		batchSize:   defaultBatchSize,
		batchDelay:  defaultBatchDelay,
		prober:      NewWebsiteProber(),
		phoneRegion: defaultPhoneRegion,
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mode reports the configured enrichment policy.
func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// EnrichAll runs one enrichment pass over the given records. Items are
// processed in fixed-size batches whose members run concurrently; the batch
// is awaited before the next one starts. Once elapsed time exceeds the budget
// the remaining records are downgraded to fast-mode estimates instead of
// blocking. A single record's failure never fails the pass.
func (o *Orchestrator) EnrichAll(ctx context.Context, records []entity.Place) []entity.Place {
	if len(records) == 0 {
		return records
	}

	enriched := make([]entity.Place, len(records))
	copy(enriched, records)

	start := o.now()
	budgetExceeded := false

	for batchStart := 0; batchStart < len(enriched); batchStart += o.batchSize {
		batchEnd := batchStart + o.batchSize
		if batchEnd > len(enriched) {
			batchEnd = len(enriched)
		}

		if !budgetExceeded && o.mode == ModeComprehensive && o.now().Sub(start) > o.budget {
			budgetExceeded = true
			log.Printf("enrichment budget exceeded after %s, downgrading %d records to fast mode", o.now().Sub(start), len(enriched)-batchStart)
		}

		if o.mode == ModeFast || budgetExceeded || ctx.Err() != nil {
			for i := batchStart; i < batchEnd; i++ {
				o.enrichFast(&enriched[i])
			}
			continue
		}

		if batchStart > 0 && o.batchDelay > 0 {
			if err := o.sleep(ctx, o.batchDelay); err != nil {
				for i := batchStart; i < len(enriched); i++ {
					o.enrichFast(&enriched[i])
				}
				return enriched
			}
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for i := batchStart; i < batchEnd; i++ {
			i := i
			group.Go(func() error {
				o.enrichComprehensive(groupCtx, &enriched[i])
				return nil
			})
		}
		group.Wait()
	}

	return enriched
}

// enrichFast applies the estimate-only policy: name-keyword heuristics,
// no network calls.
func (o *Orchestrator) enrichFast(place *entity.Place) {
	ApplyFastEstimates(place, o.now())
}

// enrichComprehensive fans out to every configured source for one record and
// merges the results in priority order. Source failures are invisible at the
// field level; they only show up as missing provenance entries.
func (o *Orchestrator) enrichComprehensive(ctx context.Context, place *entity.Place) {
	var (
		primaryData, secondaryData *Firmographics
		legalData                  *LegalRecord
		websiteCheck               *WebsiteCheck
		scraped                    *ScrapeResult
	)

	domain := ""
	if place.Website != nil {
		domain = ExtractDomain(*place.Website)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if o.primary != nil && domain != "" {
		group.Go(func() error {
			data, err := retry.Do(groupCtx, func(ctx context.Context) (*Firmographics, error) {
				return o.primary.LookupDomain(ctx, domain)
			}, o.retryOpts...)
			if err != nil {
				log.Printf("enrichment source=%s place_id=%s err=%v", o.primary.Name(), place.PlaceID, err)
				return nil
			}
			primaryData = data
			return nil
		})
	}

	if o.secondary != nil && domain != "" {
		group.Go(func() error {
			data, err := retry.Do(groupCtx, func(ctx context.Context) (*Firmographics, error) {
				return o.secondary.LookupDomain(ctx, domain)
			}, o.retryOpts...)
			if err != nil {
				log.Printf("enrichment source=%s place_id=%s err=%v", o.secondary.Name(), place.PlaceID, err)
				return nil
			}
			secondaryData = data
			return nil
		})
	}

	if o.legal != nil && place.Name != "" {
		group.Go(func() error {
			record, err := retry.Do(groupCtx, func(ctx context.Context) (*LegalRecord, error) {
				return o.legal.LookupBusiness(ctx, place.Name)
			}, o.retryOpts...)
			if err != nil {
				log.Printf("enrichment source=%s place_id=%s err=%v", o.legal.Name(), place.PlaceID, err)
				return nil
			}
			legalData = record
			return nil
		})
	}

	if place.Website != nil && *place.Website != "" {
		group.Go(func() error {
			check := o.prober.Probe(groupCtx, *place.Website)
			websiteCheck = &check
			if check.Status == entity.WebsiteActive || check.Status == entity.WebsiteRedirected {
				result, err := o.prober.Scrape(groupCtx, *place.Website)
				if err != nil {
					log.Printf("enrichment source=%s place_id=%s err=%v", sourceWebsiteScrape, place.PlaceID, err)
					return nil
				}
				scraped = result
			}
			return nil
		})
	}

	group.Wait()

	now := o.now()
	contributed := false

	// Priority order: primary firmographics, then fallback, then registry.
	if o.primary != nil && applyFirmographics(place, primaryData, now) {
		place.MarkSource(o.primary.Name())
		contributed = true
	}
	if o.secondary != nil && applyFirmographics(place, secondaryData, now) {
		place.MarkSource(o.secondary.Name())
		contributed = true
	}
	if o.legal != nil && applyLegal(place, legalData) {
		place.MarkSource(o.legal.Name())
		contributed = true
	}

	if websiteCheck != nil {
		status := websiteCheck.Status
		place.WebsiteStatus = &status
		place.WebsiteVerifiedAt = &now
		place.MarkSource(sourceWebsiteProbe)
		contributed = true
	} else if place.Website == nil || *place.Website == "" {
		if place.WebsiteStatus == nil {
			status := entity.WebsiteNone
			place.WebsiteStatus = &status
			place.WebsiteVerifiedAt = &now
		}
	}

	if scraped != nil {
		if len(scraped.Emails) > 0 && fillString(&place.Email, scraped.Emails[0]) {
			place.MarkSource(sourceWebsiteScrape)
			contributed = true
		}
		if fillString(&place.ContactFormURL, scraped.ContactFormURL) {
			place.MarkSource(sourceWebsiteScrape)
			contributed = true
		}
		// The form probe ran this pass whenever the scrape reports an outcome,
		// even if the URL itself was already known from an earlier pass.
		if scraped.ContactFormWorking != nil {
			working := *scraped.ContactFormWorking
			place.ContactFormWorking = &working
			place.ContactFormCheckedAt = &now
			place.MarkSource(sourceWebsiteScrape)
			contributed = true
		}
	}

	// An email-pattern guess from a firmographic provider is a last resort
	// and only usable when it is a literal address, not a template.
	if place.Email == nil {
		for _, data := range []*Firmographics{primaryData, secondaryData} {
			if data != nil && data.EmailPattern != "" && !containsTemplate(data.EmailPattern) {
				if fillString(&place.Email, data.EmailPattern) {
					contributed = true
				}
				break
			}
		}
	}

	// Verification timestamps are set if and only if the check was attempted
	// in this pass.
	if place.Phone != nil && *place.Phone != "" {
		verified := VerifyPhone(*place.Phone, o.phoneRegion)
		place.PhoneVerified = &verified
		place.PhoneVerifiedAt = &now
		place.MarkSource(sourcePhoneVerify)
	}
	if place.Email != nil && *place.Email != "" {
		verified := VerifyEmailDeliverable(ctx, o.resolver, *place.Email)
		place.EmailVerified = &verified
		place.EmailVerifiedAt = &now
		place.MarkSource(sourceEmailVerify)
	}

	// Cheap heuristics backfill whatever the sources left empty.
	ApplyFastEstimates(place, now)

	if contributed {
		place.PromoteLevel(entity.EnrichmentEnhanced)
	}
	place.LastEnrichedAt = &now
}

func containsTemplate(pattern string) bool {
	return !VerifyEmail(pattern)
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
