package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leadscout/api/internal/apierr"
	"github.com/octobees/leadscout/api/internal/dto"
	"github.com/octobees/leadscout/api/internal/entity"
	"github.com/octobees/leadscout/api/internal/service"
)

type stubSearcher struct {
	searchFunc func(ctx context.Context, query string, forceFresh bool, maxResults int) (dto.SearchResponse, error)
	enrichFunc func(ctx context.Context, placeIDs []string) (dto.EnrichResponse, error)
}

func (s *stubSearcher) Search(ctx context.Context, query string, forceFresh bool, maxResults int) (dto.SearchResponse, error) {
	return s.searchFunc(ctx, query, forceFresh, maxResults)
}

func (s *stubSearcher) Enrich(ctx context.Context, placeIDs []string) (dto.EnrichResponse, error) {
	return s.enrichFunc(ctx, placeIDs)
}

func performSearch(t *testing.T, searcher LeadSearcher, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewSearchHandler(searcher).Search(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestSearchHandlerSuccess(t *testing.T) {
	email := "sales@acme.com"
	searcher := &stubSearcher{
		searchFunc: func(ctx context.Context, query string, forceFresh bool, maxResults int) (dto.SearchResponse, error) {
			if query != "plumbers in austin" || !forceFresh || maxResults != 20 {
				t.Errorf("unexpected call: query=%q forceFresh=%v maxResults=%d", query, forceFresh, maxResults)
			}
			return dto.SearchResponse{Places: []entity.Place{{PlaceID: "p1", Name: "Acme", Email: &email}}}, nil
		},
	}

	rec := performSearch(t, searcher, `{"query":"plumbers in austin","force_fresh":true,"max_results":20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Places []struct {
				PlaceID string `json:"place_id"`
				Score   struct {
					Total     int            `json:"total"`
					Breakdown map[string]int `json:"breakdown"`
				} `json:"score"`
			} `json:"places"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
	if len(resp.Data.Places) != 1 || resp.Data.Places[0].PlaceID != "p1" {
		t.Fatalf("unexpected places: %+v", resp.Data.Places)
	}
	// Search results carry the same lead score shape as the list endpoint.
	if resp.Data.Places[0].Score.Total <= 0 || len(resp.Data.Places[0].Score.Breakdown) != 4 {
		t.Fatalf("expected scored place, got %+v", resp.Data.Places[0].Score)
	}
}

func TestSearchHandlerValidation(t *testing.T) {
	searcher := &stubSearcher{searchFunc: func(ctx context.Context, query string, forceFresh bool, maxResults int) (dto.SearchResponse, error) {
		t.Fatalf("service must not be called for invalid payloads")
		return dto.SearchResponse{}, nil
	}}

	if rec := performSearch(t, searcher, `{"query":"   "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank query, got %d", rec.Code)
	}
	if rec := performSearch(t, searcher, `{invalid json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}
}

func TestSearchHandlerErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"unavailable": {err: service.ErrSearchUnavailable, want: http.StatusServiceUnavailable},
		"unauthorized": {
			err:  apierr.New(apierr.KindUnauthorized, "places_search", "key rejected"),
			want: http.StatusBadGateway,
		},
		"internal": {err: context.DeadlineExceeded, want: http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			searcher := &stubSearcher{searchFunc: func(ctx context.Context, query string, forceFresh bool, maxResults int) (dto.SearchResponse, error) {
				return dto.SearchResponse{}, tc.err
			}}
			rec := performSearch(t, searcher, `{"query":"plumbers"}`)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestEnrichHandlerErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"no usable ids": {err: service.ErrNoPlaceIDs, want: http.StatusBadRequest},
		"repo failure":  {err: errors.New("load places for enrichment: db down"), want: http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			searcher := &stubSearcher{enrichFunc: func(ctx context.Context, placeIDs []string) (dto.EnrichResponse, error) {
				return dto.EnrichResponse{}, tc.err
			}}

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(`{"place_ids":["  "]}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := NewSearchHandler(searcher).Enrich(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestEnrichHandler(t *testing.T) {
	searcher := &stubSearcher{
		enrichFunc: func(ctx context.Context, placeIDs []string) (dto.EnrichResponse, error) {
			if len(placeIDs) != 2 {
				t.Errorf("unexpected ids: %v", placeIDs)
			}
			return dto.EnrichResponse{Results: []dto.EnrichmentOutcome{
				{PlaceID: "p1", Status: "enriched"},
				{PlaceID: "p2", Status: "error", Error: "place not found"},
			}}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(`{"place_ids":["p1","p2"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := NewSearchHandler(searcher).Enrich(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Missing ids is a client error.
	req = httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(`{"place_ids":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := NewSearchHandler(searcher).Enrich(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty ids, got %d", rec.Code)
	}
}
