package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/octobees/leadscout/api/internal/apierr"
	"github.com/octobees/leadscout/api/internal/retry"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	// The provider caps text search at ~60 results across 3 pages and
	// requires a short grace period before a page token becomes valid.
	maxPages       = 3
	pageTokenGrace = 2 * time.Second

	searchSource  = "places_search"
	detailsSource = "places_details"
)

// HTTPDoer is the minimal HTTP client surface, overridable in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client executes text searches and detail lookups against the places
// provider, honoring pagination and inter-page delay constraints.
type Client struct {
	httpClient HTTPDoer
	apiKey     string
	baseURL    string
	sleep      func(ctx context.Context, d time.Duration) error
	retryOpts  []retry.Option
}

// ClientOption configures optional Client dependencies.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithBaseURL points the client at a different provider endpoint.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithSleep overrides the pagination sleep. Tests use this to avoid waiting.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = fn }
}

// WithRetryOptions forwards options to the retry wrapper around each page.
func WithRetryOptions(opts ...retry.Option) ClientOption {
	return func(c *Client) { c.retryOpts = opts }
}

// NewClient builds a places client for the given API key.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, apierr.New(apierr.KindUnauthorized, searchSource, "places API key must not be empty")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TextSearch runs one query variant through the paginated text-search
// endpoint. Results are deduplicated by place id within this call. Pagination
// stops at maxResults (when > 0), at the provider's page cap, or when no
// next-page token is returned.
func (c *Client) TextSearch(ctx context.Context, query string, maxResults int) ([]Result, error) {
	var (
		results   []Result
		seen      = make(map[string]struct{})
		pageToken string
	)

	for page := 0; page < maxPages; page++ {
		if pageToken != "" {
			if err := c.sleep(ctx, pageTokenGrace); err != nil {
				return results, err
			}
		}

		resp, err := c.fetchSearchPage(ctx, query, pageToken)
		if err != nil {
			return nil, err
		}

		for _, raw := range resp.Results {
			if raw.PlaceID == "" {
				continue
			}
			if _, dup := seen[raw.PlaceID]; dup {
				continue
			}
			seen[raw.PlaceID] = struct{}{}
			results = append(results, toResult(raw))
			if maxResults > 0 && len(results) >= maxResults {
				return results, nil
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return results, nil
}

// fetchSearchPage fetches a single page, wrapped in the retry policy. An
// INVALID_REQUEST while a page token is pending means the token has not
// propagated yet; the page is retried once after the grace period instead of
// aborting the call.
func (c *Client) fetchSearchPage(ctx context.Context, query, pageToken string) (*searchResponse, error) {
	resp, err := retry.Do(ctx, func(ctx context.Context) (*searchResponse, error) {
		return c.doSearchRequest(ctx, query, pageToken)
	}, c.retryOpts...)
	if err == nil {
		return resp, nil
	}

	if pageToken != "" && apierr.KindOf(err) == apierr.KindInvalidRequest {
		if sleepErr := c.sleep(ctx, pageTokenGrace); sleepErr != nil {
			return nil, sleepErr
		}
		return c.doSearchRequest(ctx, query, pageToken)
	}

	return nil, err
}

func (c *Client) doSearchRequest(ctx context.Context, query, pageToken string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	}

	var payload searchResponse
	if err := c.getJSON(ctx, "/textsearch/json", params, searchSource, &payload); err != nil {
		return nil, err
	}
	if err := classifyStatus(payload.Status, payload.ErrorMessage, searchSource); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Details fetches supplementary contact fields for one place id.
func (c *Client) Details(ctx context.Context, placeID string) (*Result, error) {
	if placeID == "" {
		return nil, apierr.New(apierr.KindInvalidRequest, detailsSource, "place id must not be empty")
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "formatted_phone_number,international_phone_number,website")
	params.Set("key", c.apiKey)

	var payload detailsResponse
	if err := c.getJSON(ctx, "/details/json", params, detailsSource, &payload); err != nil {
		return nil, err
	}
	if err := classifyStatus(payload.Status, payload.ErrorMessage, detailsSource); err != nil {
		return nil, err
	}

	phone := payload.Result.InternationalPhoneNumber
	if phone == "" {
		phone = payload.Result.FormattedPhoneNumber
	}
	return &Result{PlaceID: placeID, Phone: phone, Website: payload.Result.Website}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, source string, out any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", source, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apierr.Wrap(apierr.KindTimeout, source, err)
		}
		return apierr.Wrap(apierr.KindUnavailable, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apierr.FromStatusCode(resp.StatusCode, source, "")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierr.Wrap(apierr.KindUnknown, source, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyStatus maps provider status strings to error kinds. ZERO_RESULTS is
// a valid empty outcome, not an error.
func classifyStatus(status, message, source string) error {
	switch status {
	case statusOK, statusZeroResults:
		return nil
	case statusRequestDenied:
		return apierr.New(apierr.KindUnauthorized, source, nonEmpty(message, "request denied"))
	case statusOverQueryLimit:
		return apierr.New(apierr.KindRateLimited, source, nonEmpty(message, "query limit exceeded"))
	case statusInvalidRequest:
		return apierr.New(apierr.KindInvalidRequest, source, nonEmpty(message, "invalid request"))
	case statusNotFound:
		return apierr.New(apierr.KindNotFound, source, nonEmpty(message, "place not found"))
	default:
		return apierr.New(apierr.KindUnavailable, source, nonEmpty(message, "provider status "+status))
	}
}

func nonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func toResult(raw searchResult) Result {
	r := Result{
		PlaceID:     raw.PlaceID,
		Name:        raw.Name,
		Address:     raw.FormattedAddress,
		Latitude:    raw.Geometry.Location.Lat,
		Longitude:   raw.Geometry.Location.Lng,
		Rating:      raw.Rating,
		UserRatings: raw.UserRatingsTotal,
	}
	if len(raw.Types) > 0 {
		r.Category = raw.Types[0]
	}
	return r
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
