package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leadscout/api/internal/apierr"
	"github.com/octobees/leadscout/api/internal/dto"
	"github.com/octobees/leadscout/api/internal/service"
	"github.com/octobees/leadscout/api/internal/service/scoring"
)

// LeadSearcher is the search service surface the handler depends on.
type LeadSearcher interface {
	Search(ctx context.Context, query string, forceFresh bool, maxResults int) (dto.SearchResponse, error)
	Enrich(ctx context.Context, placeIDs []string) (dto.EnrichResponse, error)
}

// searchResult mirrors dto.SearchResponse with lead scores attached, so both
// read surfaces report the same scored shape.
type searchResult struct {
	Places  []scoredPlace `json:"places"`
	Warning string        `json:"warning,omitempty"`
	Cached  bool          `json:"cached"`
}

// SearchHandler exposes the lead search and enrichment entry points.
type SearchHandler struct {
	searcher LeadSearcher
}

// NewSearchHandler wires a new SearchHandler instance.
func NewSearchHandler(searcher LeadSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search runs the search pipeline for the posted query.
func (h *SearchHandler) Search(c echo.Context) error {
	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return Error(c, http.StatusBadRequest, "query is required")
	}

	result, err := h.searcher.Search(c.Request().Context(), req.Query, req.ForceFresh, req.MaxResults)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery):
			return Error(c, http.StatusBadRequest, "query is required")
		case errors.Is(err, service.ErrSearchUnavailable):
			return Error(c, http.StatusServiceUnavailable, "search provider unavailable")
		case apierr.KindOf(err) == apierr.KindUnauthorized:
			return Error(c, http.StatusBadGateway, "search provider rejected our credentials")
		default:
			return Error(c, http.StatusInternalServerError, "search failed")
		}
	}

	scored := make([]scoredPlace, 0, len(result.Places))
	for _, place := range result.Places {
		scored = append(scored, scoredPlace{Place: place, Score: scoring.ComputeScore(place)})
	}

	return Success(c, http.StatusOK, "search completed", searchResult{
		Places:  scored,
		Warning: result.Warning,
		Cached:  result.Cached,
	})
}

// Enrich re-runs enrichment for the posted place ids.
func (h *SearchHandler) Enrich(c echo.Context) error {
	var req dto.EnrichRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if len(req.PlaceIDs) == 0 {
		return Error(c, http.StatusBadRequest, "place_ids is required")
	}

	result, err := h.searcher.Enrich(c.Request().Context(), req.PlaceIDs)
	if err != nil {
		if errors.Is(err, service.ErrNoPlaceIDs) {
			return Error(c, http.StatusBadRequest, err.Error())
		}
		return Error(c, http.StatusInternalServerError, "enrichment failed")
	}

	return Success(c, http.StatusOK, "enrichment completed", result)
}
