package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leadscout/api/internal/dto"
	"github.com/octobees/leadscout/api/internal/entity"
	"github.com/octobees/leadscout/api/internal/service"
	"github.com/octobees/leadscout/api/internal/service/scoring"
)

// PlacesHandler serves the stored lead catalogue.
type PlacesHandler struct {
	placesService *service.PlacesService
}

// NewPlacesHandler wires a new PlacesHandler instance.
func NewPlacesHandler(placesService *service.PlacesService) *PlacesHandler {
	return &PlacesHandler{placesService: placesService}
}

// scoredPlace decorates a place with its lead score for list responses.
type scoredPlace struct {
	entity.Place
	Score scoring.ScoreResult `json:"score"`
}

// List returns places matching the query-string filter.
func (h *PlacesHandler) List(c echo.Context) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	placesList, err := h.placesService.ListPlaces(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list places")
	}

	scored := make([]scoredPlace, 0, len(placesList))
	for _, place := range placesList {
		scored = append(scored, scoredPlace{Place: place, Score: scoring.ComputeScore(place)})
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return Success(c, http.StatusOK, "ok", map[string]any{
		"places": scored,
		"page":   page,
	})
}

func parseListFilter(c echo.Context) (dto.ListFilter, error) {
	filter := dto.ListFilter{
		Q:               strings.TrimSpace(c.QueryParam("q")),
		Category:        strings.TrimSpace(c.QueryParam("category")),
		City:            strings.TrimSpace(c.QueryParam("city")),
		EnrichmentLevel: strings.TrimSpace(c.QueryParam("enrichment_level")),
		WebsiteFilter:   strings.TrimSpace(c.QueryParam("website")),
		Sort:            strings.TrimSpace(c.QueryParam("sort")),
	}

	if raw := c.QueryParam("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return dto.ListFilter{}, errors.New("invalid min_rating")
		}
		filter.MinRating = &rating
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return dto.ListFilter{}, errors.New("invalid page")
		}
		filter.Page = page
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			return dto.ListFilter{}, errors.New("invalid per_page")
		}
		filter.PerPage = perPage
	}

	return filter, nil
}
