// Package scoring ranks enriched place records by how actionable they are as
// leads. The score is a coarse 0-100 heuristic over contact completeness,
// website quality, verification depth and business profile.
package scoring

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/octobees/leadscout/api/internal/entity"
)

const (
	categoryContact      = "contact_completeness"
	categoryWebsite      = "website_quality"
	categoryVerification = "verification"
	categoryBusiness     = "business_profile"
)

var freeHostingDomains = []string{
	"wordpress.com",
	"blogspot.com",
	"wixsite.com",
	"weebly.com",
	"squarespace.com",
	"medium.com",
	"substack.com",
	"godaddysites.com",
	"notion.site",
	"googlepages.com",
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// ComputeScore evaluates the given place and returns the score breakdown.
func ComputeScore(place entity.Place) ScoreResult {
	breakdown := map[string]int{
		categoryContact:      scoreContactCompleteness(place),
		categoryWebsite:      scoreWebsiteQuality(place),
		categoryVerification: scoreVerification(place),
		categoryBusiness:     scoreBusinessProfile(place),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

func scoreContactCompleteness(place entity.Place) int {
	score := 0
	if hasText(place.Email) {
		score += 10
	}
	if hasText(place.Phone) {
		score += 10
	}
	if hasText(place.ContactFormURL) {
		score += 5
	}
	if score > 25 {
		return 25
	}
	return score
}

func scoreWebsiteQuality(place entity.Place) int {
	score := 0
	if place.Website != nil && strings.HasPrefix(strings.ToLower(strings.TrimSpace(*place.Website)), "https://") {
		score += 5
	}
	if place.WebsiteStatus != nil {
		switch *place.WebsiteStatus {
		case entity.WebsiteActive:
			score += 15
		case entity.WebsiteRedirected:
			score += 10
		}
	}
	if place.ContactFormWorking != nil && *place.ContactFormWorking {
		score += 5
	}
	if score > 25 {
		return 25
	}
	return score
}

func scoreVerification(place entity.Place) int {
	score := 0
	if place.EmailVerified != nil && *place.EmailVerified {
		score += 10
	}
	if place.PhoneVerified != nil && *place.PhoneVerified {
		score += 5
	}
	if place.BusinessVerified != nil && *place.BusinessVerified {
		score += 10
	}
	if score > 25 {
		return 25
	}
	return score
}

func scoreBusinessProfile(place entity.Place) int {
	score := 0
	if place.Address != nil && hasCompleteAddress(*place.Address) {
		score += 5
	}
	if place.Website != nil && highQualityDomain(*place.Website) {
		score += 5
	}
	if hasText(place.Industry) {
		score += 5
	}
	if hasText(place.RevenueRange) || place.RevenueExact != nil {
		score += 5
	}
	if hasText(place.EmployeeRange) || place.EmployeeCountExact != nil {
		score += 5
	}
	if score > 25 {
		return 25
	}
	return score
}

func hasText(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func hasCompleteAddress(raw string) bool {
	addr := strings.TrimSpace(raw)
	if len(addr) < 10 {
		return false
	}
	var hasLetter, hasDigit bool
	separatorCount := 0
	for _, r := range addr {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case r == ',':
			separatorCount++
		}
	}
	return hasLetter && hasDigit && separatorCount >= 1
}

func highQualityDomain(raw string) bool {
	domain := extractDomain(raw)
	if domain == "" {
		return false
	}
	for _, bad := range freeHostingDomains {
		if domain == bad || strings.HasSuffix(domain, "."+bad) {
			return false
		}
	}
	return strings.Count(domain, ".") >= 1
}

func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lowered := strings.ToLower(raw)
	if !strings.Contains(lowered, "://") {
		lowered = "https://" + lowered
	}
	parsed, err := url.Parse(lowered)
	if err != nil {
		return ""
	}
	host := strings.TrimSpace(strings.ToLower(parsed.Host))
	host = strings.TrimPrefix(host, "www.")
	return host
}
