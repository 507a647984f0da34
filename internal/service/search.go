package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/octobees/leadscout/api/internal/apierr"
	"github.com/octobees/leadscout/api/internal/dto"
	"github.com/octobees/leadscout/api/internal/enrich"
	"github.com/octobees/leadscout/api/internal/entity"
	"github.com/octobees/leadscout/api/internal/places"
	"github.com/octobees/leadscout/api/internal/repository"
)

var (
	// ErrEmptyQuery indicates the caller provided no usable search text.
	ErrEmptyQuery = errors.New("search query must not be empty")
	// ErrSearchUnavailable indicates the provider is down and no cached
	// results exist to fall back to.
	ErrSearchUnavailable = errors.New("search provider unavailable and no cached results exist")
	// ErrNoPlaceIDs indicates an enrichment request without usable ids.
	ErrNoPlaceIDs = errors.New("place_ids must not be empty")
)

const (
	defaultMaxResults = 60
	// Window for the stale-cache fallback when the provider is down. Much
	// wider than the regular freshness window on purpose: stale beats empty.
	staleFallbackWindow = 30 * 24 * time.Hour

	warningStaleCache = "search provider unavailable; serving cached results that may be stale"
)

// SearchProvider executes one query variant against the places provider.
type SearchProvider interface {
	TextSearch(ctx context.Context, query string, maxResults int) ([]places.Result, error)
}

// DetailEnhancer fills phone/website fields on raw search stubs.
type DetailEnhancer interface {
	Enhance(ctx context.Context, stubs []places.Result) ([]places.Result, error)
}

// Enricher runs an enrichment pass over place records.
type Enricher interface {
	Mode() enrich.Mode
	EnrichAll(ctx context.Context, records []entity.Place) []entity.Place
}

// SearchService composes the lead pipeline: cache check, query expansion,
// provider search, dedup, detail enhancement, enrichment and persistence.
type SearchService struct {
	repo      repository.PlacesRepository
	provider  SearchProvider
	enhancer  DetailEnhancer
	enricher  Enricher
	freshness time.Duration
}

// NewSearchService wires the pipeline together.
func NewSearchService(repo repository.PlacesRepository, provider SearchProvider, enhancer DetailEnhancer, enricher Enricher, freshness time.Duration) *SearchService {
	if freshness <= 0 {
		freshness = 24 * time.Hour
	}
	return &SearchService{
		repo:      repo,
		provider:  provider,
		enhancer:  enhancer,
		enricher:  enricher,
		freshness: freshness,
	}
}

// Search serves a lead query from cache when fresh results exist, otherwise
// fetches, enriches and persists fresh records. Callers always receive either
// a result set (possibly warning-annotated) or a single categorized error.
func (s *SearchService) Search(ctx context.Context, query string, forceFresh bool, maxResults int) (dto.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return dto.SearchResponse{}, ErrEmptyQuery
	}
	if maxResults <= 0 || maxResults > defaultMaxResults {
		maxResults = defaultMaxResults
	}

	if !forceFresh {
		cached, err := s.repo.FindByQuery(ctx, query, s.freshness, maxResults)
		if err != nil {
			log.Printf("cache read failed query=%q err=%v", query, err)
		} else if len(cached) > 0 {
			return dto.SearchResponse{Places: cached, Cached: true}, nil
		}
	}

	raw, searchErr := s.fanOutSearch(ctx, query, maxResults)
	if searchErr != nil {
		if apierr.KindOf(searchErr) == apierr.KindUnauthorized {
			return dto.SearchResponse{}, searchErr
		}
		stale, cacheErr := s.repo.FindByQuery(ctx, query, staleFallbackWindow, maxResults)
		if cacheErr == nil && len(stale) > 0 {
			log.Printf("search fallback to stale cache query=%q err=%v", query, searchErr)
			return dto.SearchResponse{Places: stale, Warning: warningStaleCache, Cached: true}, nil
		}
		return dto.SearchResponse{}, fmt.Errorf("%w: %v", ErrSearchUnavailable, searchErr)
	}

	if len(raw) == 0 {
		return dto.SearchResponse{Places: []entity.Place{}}, nil
	}

	// Fast mode answers from provider-search fields alone; detail calls are
	// skipped entirely to keep latency flat.
	if s.enricher.Mode() != enrich.ModeFast {
		enhanced, err := s.enhancer.Enhance(ctx, raw)
		if err != nil {
			log.Printf("detail enhancement interrupted query=%q err=%v", query, err)
		}
		if len(enhanced) == len(raw) {
			raw = enhanced
		}
	}

	records := make([]entity.Place, 0, len(raw))
	for _, result := range raw {
		records = append(records, toPlaceRecord(result))
	}

	enriched := s.enricher.EnrichAll(ctx, records)

	saved := s.persistAll(ctx, enriched)
	return dto.SearchResponse{Places: saved}, nil
}

// Enrich re-runs the enrichment pass over already-stored places. Each outcome
// is independent: an unknown id or failed upsert degrades that entry only.
func (s *SearchService) Enrich(ctx context.Context, placeIDs []string) (dto.EnrichResponse, error) {
	ids := make([]string, 0, len(placeIDs))
	for _, id := range placeIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return dto.EnrichResponse{}, ErrNoPlaceIDs
	}

	stored, err := s.repo.FindByPlaceIDs(ctx, ids)
	if err != nil {
		return dto.EnrichResponse{}, fmt.Errorf("load places for enrichment: %w", err)
	}

	byID := make(map[string]entity.Place, len(stored))
	for _, place := range stored {
		byID[place.PlaceID] = place
	}

	var toEnrich []entity.Place
	for _, id := range ids {
		if place, ok := byID[id]; ok {
			toEnrich = append(toEnrich, place)
		}
	}

	enriched := s.enricher.EnrichAll(ctx, toEnrich)
	enrichedByID := make(map[string]entity.Place, len(enriched))
	for _, place := range enriched {
		enrichedByID[place.PlaceID] = place
	}

	outcomes := make([]dto.EnrichmentOutcome, 0, len(ids))
	for _, id := range ids {
		place, ok := enrichedByID[id]
		if !ok {
			outcomes = append(outcomes, dto.EnrichmentOutcome{PlaceID: id, Status: "error", Error: "place not found"})
			continue
		}
		savedPlace, err := s.repo.Upsert(ctx, &place)
		if err != nil {
			log.Printf("enrichment upsert failed place_id=%s err=%v", id, err)
			outcomes = append(outcomes, dto.EnrichmentOutcome{PlaceID: id, Status: "error", Error: "failed to persist enrichment"})
			continue
		}
		outcomes = append(outcomes, dto.EnrichmentOutcome{PlaceID: id, Status: "enriched", Data: savedPlace})
	}

	return dto.EnrichResponse{Results: outcomes}, nil
}

// fanOutSearch runs every query variant and merges the results unique by
// place id, first-seen order. Variants fail independently; only a fully
// failed fan-out (or an auth failure, which cannot recover) surfaces an error.
func (s *SearchService) fanOutSearch(ctx context.Context, query string, maxResults int) ([]places.Result, error) {
	variants := places.ExpandQuery(query)

	var (
		lists   [][]places.Result
		lastErr error
	)
	collected := 0
	for _, variant := range variants {
		if collected >= maxResults {
			break
		}
		results, err := s.provider.TextSearch(ctx, variant, maxResults)
		if err != nil {
			if apierr.KindOf(err) == apierr.KindUnauthorized {
				return nil, err
			}
			log.Printf("search variant failed variant=%q err=%v", variant, err)
			lastErr = err
			continue
		}
		lists = append(lists, results)
		collected += len(results)
	}

	merged := places.Dedupe(lists...)
	if len(merged) == 0 && lastErr != nil {
		return nil, lastErr
	}
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged, nil
}

// persistAll upserts each record; a failed upsert is logged and the in-memory
// record kept in the response so siblings are unaffected.
func (s *SearchService) persistAll(ctx context.Context, records []entity.Place) []entity.Place {
	saved := make([]entity.Place, 0, len(records))
	for i := range records {
		stored, err := s.repo.Upsert(ctx, &records[i])
		if err != nil {
			log.Printf("place upsert failed place_id=%s err=%v", records[i].PlaceID, err)
			saved = append(saved, records[i])
			continue
		}
		saved = append(saved, *stored)
	}
	return saved
}

func toPlaceRecord(result places.Result) entity.Place {
	place := entity.Place{
		PlaceID:         result.PlaceID,
		Name:            result.Name,
		Latitude:        result.Latitude,
		Longitude:       result.Longitude,
		Rating:          result.Rating,
		Reviews:         result.UserRatings,
		EnrichmentLevel: entity.EnrichmentBasic,
	}
	if result.Address != "" {
		address := result.Address
		place.Address = &address
		if city := cityFromAddress(result.Address); city != "" {
			place.City = &city
		}
	}
	if result.Category != "" {
		category := result.Category
		place.Category = &category
	}
	if result.Phone != "" {
		phone := result.Phone
		place.Phone = &phone
	}
	if result.Website != "" {
		website := result.Website
		place.Website = &website
	}
	if raw, err := json.Marshal(result); err == nil {
		place.Raw = raw
	}
	return place
}

// cityFromAddress walks a formatted address backwards past the country and
// any state/postal-code segment to the locality. Segments carrying digits are
// postal codes or street parts, never the city.
func cityFromAddress(address string) string {
	segments := strings.Split(address, ",")
	if len(segments) < 2 {
		return ""
	}
	for i := len(segments) - 2; i > 0; i-- {
		segment := strings.TrimSpace(segments[i])
		if segment == "" || strings.ContainsAny(segment, "0123456789") {
			continue
		}
		return segment
	}
	return ""
}
