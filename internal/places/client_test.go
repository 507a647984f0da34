package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/octobees/leadscout/api/internal/apierr"
	"github.com/octobees/leadscout/api/internal/retry"
)

func noSleep(recorded *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		if recorded != nil {
			*recorded = append(*recorded, d)
		}
		return nil
	}
}

func searchPage(status, token string, ids ...string) map[string]any {
	results := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		results = append(results, map[string]any{"place_id": id, "name": "Biz " + id})
	}
	page := map[string]any{"status": status, "results": results}
	if token != "" {
		page["next_page_token"] = token
	}
	return page
}

func TestTextSearchPaginatesToCap(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("pagetoken")
		requests = append(requests, token)
		var page map[string]any
		switch token {
		case "":
			page = searchPage("OK", "t2", "p1")
		case "t2":
			page = searchPage("OK", "t3", "p2", "p1")
		default:
			// Token is still handed back on the final page; the client must
			// stop at the page cap regardless.
			page = searchPage("OK", "t4", "p3")
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client, err := NewClient("key", WithBaseURL(server.URL), WithSleep(noSleep(&sleeps)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := client.TextSearch(context.Background(), "plumbers", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 unique results, got %d: %+v", len(results), results)
	}
	if len(requests) != 3 {
		t.Fatalf("expected exactly 3 page requests, got %d", len(requests))
	}
	// A grace period precedes every token-bearing page fetch.
	if len(sleeps) != 2 || sleeps[0] != pageTokenGrace {
		t.Fatalf("expected 2 grace sleeps of %s, got %v", pageTokenGrace, sleeps)
	}
}

func TestTextSearchStopsAtMaxResults(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		json.NewEncoder(w).Encode(searchPage("OK", "t2", "p1", "p2", "p3"))
	}))
	defer server.Close()

	client, err := NewClient("key", WithBaseURL(server.URL), WithSleep(noSleep(nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := client.TextSearch(context.Background(), "plumbers", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if pages != 1 {
		t.Fatalf("expected pagination to stop after first page, got %d requests", pages)
	}
}

func TestTextSearchRetriesPendingPageToken(t *testing.T) {
	tokenRequests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pagetoken") == "" {
			json.NewEncoder(w).Encode(searchPage("OK", "t2", "p1"))
			return
		}
		tokenRequests++
		if tokenRequests == 1 {
			// Token not propagated on the provider side yet.
			json.NewEncoder(w).Encode(searchPage("INVALID_REQUEST", ""))
			return
		}
		json.NewEncoder(w).Encode(searchPage("OK", "", "p2"))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client, err := NewClient("key", WithBaseURL(server.URL), WithSleep(noSleep(&sleeps)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := client.TextSearch(context.Background(), "plumbers", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both pages collected, got %d results", len(results))
	}
	if tokenRequests != 2 {
		t.Fatalf("expected exactly one token retry, got %d token requests", tokenRequests)
	}
}

func TestTextSearchAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "REQUEST_DENIED", "error_message": "key invalid"})
	}))
	defer server.Close()

	client, err := NewClient("bad-key", WithBaseURL(server.URL), WithSleep(noSleep(nil)),
		WithRetryOptions(retry.WithSleep(func(ctx context.Context, d time.Duration) error { return nil })))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.TextSearch(context.Background(), "plumbers", 0)
	if apierr.KindOf(err) != apierr.KindUnauthorized {
		t.Fatalf("expected unauthorized kind, got %v", err)
	}
}

func TestTextSearchZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchPage("ZERO_RESULTS", ""))
	}))
	defer server.Close()

	client, err := NewClient("key", WithBaseURL(server.URL), WithSleep(noSleep(nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := client.TextSearch(context.Background(), "nothing here", 0)
	if err != nil {
		t.Fatalf("zero results is not an error, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result set, got %+v", results)
	}
}

func TestDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("place_id") != "p1" {
			t.Errorf("unexpected place id: %s", r.URL.Query().Get("place_id"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"result": map[string]any{
				"formatted_phone_number":     "(512) 555-0101",
				"international_phone_number": "+1 512-555-0101",
				"website":                    "https://example.com",
			},
		})
	}))
	defer server.Close()

	client, err := NewClient("key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	detail, err := client.Details(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Phone != "+1 512-555-0101" {
		t.Fatalf("expected international number preferred, got %q", detail.Phone)
	}
	if detail.Website != "https://example.com" {
		t.Fatalf("unexpected website: %q", detail.Website)
	}

	if _, err := client.Details(context.Background(), ""); apierr.KindOf(err) != apierr.KindInvalidRequest {
		t.Fatalf("expected invalid request for empty id, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); apierr.KindOf(err) != apierr.KindUnauthorized {
		t.Fatalf("expected unauthorized error for missing key, got %v", err)
	}
}
