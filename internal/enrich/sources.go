package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/octobees/leadscout/api/internal/apierr"
)

// Firmographics is the structured payload a company-data provider reports
// for one domain. Empty fields simply were not known to that provider.
type Firmographics struct {
	Industry      string `json:"industry"`
	RevenueRange  string `json:"revenue_range"`
	RevenueExact  *int64 `json:"revenue_exact"`
	EmployeeRange string `json:"employee_range"`
	EmployeeCount *int   `json:"employee_count"`
	CompanyType   string `json:"company_type"`
	YearFounded   *int   `json:"year_founded"`
	EmailPattern  string `json:"email_pattern"`
}

// FirmographicSource looks up company data keyed by domain.
type FirmographicSource interface {
	Name() string
	LookupDomain(ctx context.Context, domain string) (*Firmographics, error)
}

// HTTPDoer is the minimal HTTP client surface, overridable in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CompanyDataClient talks to a lookup-by-domain firmographic API. A client is
// only constructed when credentials exist; an absent provider is a no-op
// source, not an error.
type CompanyDataClient struct {
	name       string
	httpClient HTTPDoer
	apiKey     string
	baseURL    string
}

// NewCompanyDataClient returns nil when apiKey or baseURL is missing so the
// orchestrator can treat the source as silently unavailable.
func NewCompanyDataClient(name, apiKey, baseURL string, httpClient HTTPDoer) *CompanyDataClient {
	if apiKey == "" || baseURL == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &CompanyDataClient{
		name:       name,
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies this provider in provenance records.
func (c *CompanyDataClient) Name() string {
	return c.name
}

// LookupDomain fetches firmographic data for the given domain.
func (c *CompanyDataClient) LookupDomain(ctx context.Context, domain string) (*Firmographics, error) {
	if domain == "" {
		return nil, apierr.New(apierr.KindInvalidRequest, c.name, "domain must not be empty")
	}

	endpoint := fmt.Sprintf("%s/companies?domain=%s", c.baseURL, url.QueryEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.name, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apierr.Wrap(apierr.KindTimeout, c.name, err)
		}
		return nil, apierr.Wrap(apierr.KindUnavailable, c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apierr.FromStatusCode(resp.StatusCode, c.name, "")
	}

	var payload Firmographics
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apierr.Wrap(apierr.KindUnknown, c.name, fmt.Errorf("decode response: %w", err))
	}
	return &payload, nil
}
