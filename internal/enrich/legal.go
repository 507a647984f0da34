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

// LegalRecord is what a business-registration registry reports for a company
// name lookup. Registered mirrors the registry's own status judgement; it is
// never assumed.
type LegalRecord struct {
	TaxID             string `json:"tax_id"`
	RegistrationState string `json:"registration_state"`
	BusinessStatus    string `json:"business_status"`
	EntityType        string `json:"entity_type"`
	Registered        bool   `json:"registered"`
}

// LegalSource verifies legal registration keyed by business name.
type LegalSource interface {
	Name() string
	LookupBusiness(ctx context.Context, businessName string) (*LegalRecord, error)
}

// LegalRegistryClient talks to a lookup-by-name registration API.
type LegalRegistryClient struct {
	name       string
	httpClient HTTPDoer
	apiKey     string
	baseURL    string
}

// NewLegalRegistryClient returns nil when unconfigured, mirroring the
// optional-source contract of the firmographic clients.
func NewLegalRegistryClient(apiKey, baseURL string, httpClient HTTPDoer) *LegalRegistryClient {
	if apiKey == "" || baseURL == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &LegalRegistryClient{
		name:       "legal_registry",
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies this provider in provenance records.
func (c *LegalRegistryClient) Name() string {
	return c.name
}

// LookupBusiness fetches the registration record for a business name.
func (c *LegalRegistryClient) LookupBusiness(ctx context.Context, businessName string) (*LegalRecord, error) {
	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		return nil, apierr.New(apierr.KindInvalidRequest, c.name, "business name must not be empty")
	}

	endpoint := fmt.Sprintf("%s/registrations?name=%s", c.baseURL, url.QueryEscape(businessName))
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

	var payload LegalRecord
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apierr.Wrap(apierr.KindUnknown, c.name, fmt.Errorf("decode response: %w", err))
	}
	return &payload, nil
}
