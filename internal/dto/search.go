package dto

import "github.com/octobees/leadscout/api/internal/entity"

// SearchRequest is the payload for the lead search endpoint.
type SearchRequest struct {
	Query      string `json:"query"`
	ForceFresh bool   `json:"force_fresh,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SearchResponse carries the resulting places. Warning is set when a fallback
// path was taken, such as serving stale cache after a provider failure.
type SearchResponse struct {
	Places  []entity.Place `json:"places"`
	Warning string         `json:"warning,omitempty"`
	Cached  bool           `json:"cached"`
}
