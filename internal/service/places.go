package service

import (
	"context"

	"github.com/octobees/leadscout/api/internal/dto"
	"github.com/octobees/leadscout/api/internal/entity"
	"github.com/octobees/leadscout/api/internal/repository"
)

// PlacesService exposes read operations for the stored lead catalogue.
type PlacesService struct {
	repo repository.PlacesRepository
}

// NewPlacesService creates a new instance of PlacesService.
func NewPlacesService(repo repository.PlacesRepository) *PlacesService {
	return &PlacesService{repo: repo}
}

// ListPlaces returns places respecting pagination defaults.
func (s *PlacesService) ListPlaces(ctx context.Context, filter dto.ListFilter) ([]entity.Place, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}
