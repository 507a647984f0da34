package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EnrichmentLevel indicates how much verified or derived data a place carries.
type EnrichmentLevel string

const (
	EnrichmentBasic    EnrichmentLevel = "basic"
	EnrichmentFast     EnrichmentLevel = "fast"
	EnrichmentEnhanced EnrichmentLevel = "enhanced"
	EnrichmentPremium  EnrichmentLevel = "premium"
)

// rank orders levels by richness so a pass can only move a record forward.
func (l EnrichmentLevel) rank() int {
	switch l {
	case EnrichmentFast:
		return 1
	case EnrichmentEnhanced:
		return 2
	case EnrichmentPremium:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l is as rich or richer than other.
func (l EnrichmentLevel) AtLeast(other EnrichmentLevel) bool {
	return l.rank() >= other.rank()
}

// WebsiteStatus classifies the outcome of a website liveness probe.
type WebsiteStatus string

const (
	WebsiteActive     WebsiteStatus = "active"
	WebsiteInactive   WebsiteStatus = "inactive"
	WebsiteBroken     WebsiteStatus = "broken"
	WebsiteRedirected WebsiteStatus = "redirected"
	WebsiteUnknown    WebsiteStatus = "unknown"
	WebsiteNone       WebsiteStatus = "no_website"
)

// Place is the canonical stored representation of one business, spanning
// directory, firmographic and contact-verification data. Directory fields
// arrive from the places provider; everything else is populated progressively
// by enrichment passes.
type Place struct {
	ID      uuid.UUID `json:"id"`
	PlaceID string    `json:"place_id"`

	Name      string   `json:"name"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`
	Country   *string  `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Category  *string  `json:"category,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Website   *string  `json:"website,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	Reviews   *int     `json:"reviews,omitempty"`

	Industry           *string `json:"industry,omitempty"`
	RevenueRange       *string `json:"revenue_range,omitempty"`
	RevenueExact       *int64  `json:"revenue_exact,omitempty"`
	EmployeeRange      *string `json:"employee_range,omitempty"`
	EmployeeCountExact *int    `json:"employee_count_exact,omitempty"`
	CompanyType        *string `json:"company_type,omitempty"`
	YearFounded        *int    `json:"year_founded,omitempty"`
	CompanyAgeYears    *int    `json:"company_age_years,omitempty"`

	Email                *string        `json:"email,omitempty"`
	EmailVerified        *bool          `json:"email_verified,omitempty"`
	EmailVerifiedAt      *time.Time     `json:"email_verified_at,omitempty"`
	PhoneVerified        *bool          `json:"phone_verified,omitempty"`
	PhoneVerifiedAt      *time.Time     `json:"phone_verified_at,omitempty"`
	WebsiteStatus        *WebsiteStatus `json:"website_status,omitempty"`
	WebsiteVerifiedAt    *time.Time     `json:"website_verified_at,omitempty"`
	ContactFormURL       *string        `json:"contact_form_url,omitempty"`
	ContactFormWorking   *bool          `json:"contact_form_working,omitempty"`
	ContactFormCheckedAt *time.Time     `json:"contact_form_verified_at,omitempty"`

	BusinessVerified  *bool   `json:"business_verified,omitempty"`
	TaxID             *string `json:"tax_id,omitempty"`
	RegistrationState *string `json:"registration_state,omitempty"`
	BusinessStatus    *string `json:"business_status,omitempty"`

	EnrichmentLevel EnrichmentLevel `json:"enrichment_level"`
	LastEnrichedAt  *time.Time      `json:"last_enriched_at,omitempty"`
	DataSources     map[string]bool `json:"data_sources,omitempty"`
	Raw             json.RawMessage `json:"raw,omitempty"`
	StoredAt        time.Time       `json:"stored_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MarkSource records that the named provider contributed data in this pass.
func (p *Place) MarkSource(name string) {
	if p.DataSources == nil {
		p.DataSources = make(map[string]bool)
	}
	p.DataSources[name] = true
}

// PromoteLevel raises the enrichment level, never lowering it.
func (p *Place) PromoteLevel(level EnrichmentLevel) {
	if !p.EnrichmentLevel.AtLeast(level) {
		p.EnrichmentLevel = level
	}
}
