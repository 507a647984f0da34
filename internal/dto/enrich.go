package dto

import "github.com/octobees/leadscout/api/internal/entity"

// EnrichRequest asks for an enrichment pass over stored places.
type EnrichRequest struct {
	PlaceIDs []string `json:"place_ids"`
}

// EnrichmentOutcome reports the result for one requested place id: either the
// enriched record or a human-readable error.
type EnrichmentOutcome struct {
	PlaceID string        `json:"place_id"`
	Status  string        `json:"status"`
	Data    *entity.Place `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// EnrichResponse wraps the per-place outcomes.
type EnrichResponse struct {
	Results []EnrichmentOutcome `json:"results"`
}
