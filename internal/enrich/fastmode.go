package enrich

import (
	"strings"
	"time"

	"github.com/octobees/leadscout/api/internal/entity"
)

// Fast-mode estimates are derived from name keywords only. They are coarse,
// low-confidence buckets: the pass is labelled through EnrichmentFast and the
// "heuristics" provenance entry, and never sets any verified flag.

const heuristicsSource = "heuristics"

var companyTypeKeywords = []struct {
	keyword string
	value   string
}{
	{"llc", "LLC"},
	{"l.l.c", "LLC"},
	{"inc", "Corporation"},
	{"corp", "Corporation"},
	{"incorporated", "Corporation"},
	{"ltd", "Limited Company"},
	{"limited", "Limited Company"},
	{"llp", "Partnership"},
	{"partners", "Partnership"},
	{"gmbh", "GmbH"},
}

var sizeKeywords = []struct {
	keyword       string
	revenueRange  string
	employeeRange string
}{
	{"enterprise", "$10M-$50M", "201-500"},
	{"international", "$10M-$50M", "201-500"},
	{"global", "$10M-$50M", "201-500"},
	{"group", "$5M-$10M", "51-200"},
	{"holdings", "$5M-$10M", "51-200"},
	{"consulting", "$1M-$10M", "11-50"},
	{"agency", "$1M-$10M", "11-50"},
	{"solutions", "$1M-$10M", "11-50"},
	{"services", "$1M-$5M", "11-50"},
	{"studio", "$100K-$1M", "1-10"},
	{"shop", "$100K-$1M", "1-10"},
	{"store", "$100K-$1M", "1-10"},
	{"cafe", "$100K-$1M", "1-10"},
	{"salon", "$100K-$1M", "1-10"},
}

// ApplyFastEstimates enriches a place from name heuristics alone, with zero
// network round-trips. Existing values are never overwritten.
func ApplyFastEstimates(place *entity.Place, now time.Time) {
	name := strings.ToLower(place.Name)
	words := tokenize(name)

	if place.CompanyType == nil {
		for _, entry := range companyTypeKeywords {
			if _, ok := words[entry.keyword]; ok {
				value := entry.value
				place.CompanyType = &value
				break
			}
		}
	}

	revenue, employees := "<$100K", "1-10"
	for _, entry := range sizeKeywords {
		if strings.Contains(name, entry.keyword) {
			revenue, employees = entry.revenueRange, entry.employeeRange
			break
		}
	}
	if place.RevenueRange == nil {
		place.RevenueRange = &revenue
	}
	if place.EmployeeRange == nil {
		place.EmployeeRange = &employees
	}

	if place.WebsiteStatus == nil && place.Website != nil && *place.Website != "" {
		status := entity.WebsiteUnknown
		place.WebsiteStatus = &status
	}

	place.MarkSource(heuristicsSource)
	place.PromoteLevel(entity.EnrichmentFast)
	place.LastEnrichedAt = &now
}

func tokenize(name string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(name) {
		words[strings.Trim(word, ".,()")] = struct{}{}
	}
	return words
}
