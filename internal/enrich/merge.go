package enrich

import (
	"strings"
	"time"

	"github.com/octobees/leadscout/api/internal/entity"
)

// Merging is fill-if-empty: a field already present on the record, whether
// from an earlier pass or a higher-priority source in this one, is never
// overwritten, and a source that fails or reports nothing never clears
// anything. Sources are applied in a fixed priority order by the
// orchestrator, so the overall merge is deterministic.

func fillString(dst **string, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if *dst != nil && strings.TrimSpace(**dst) != "" {
		return false
	}
	*dst = &value
	return true
}

func fillInt(dst **int, value *int) bool {
	if value == nil || (*dst != nil) {
		return false
	}
	v := *value
	*dst = &v
	return true
}

func fillInt64(dst **int64, value *int64) bool {
	if value == nil || (*dst != nil) {
		return false
	}
	v := *value
	*dst = &v
	return true
}

// applyFirmographics merges one provider's payload into the place and reports
// whether anything new landed.
func applyFirmographics(place *entity.Place, data *Firmographics, now time.Time) bool {
	if data == nil {
		return false
	}

	contributed := false
	contributed = fillString(&place.Industry, data.Industry) || contributed
	contributed = fillString(&place.RevenueRange, data.RevenueRange) || contributed
	contributed = fillInt64(&place.RevenueExact, data.RevenueExact) || contributed
	contributed = fillString(&place.EmployeeRange, data.EmployeeRange) || contributed
	contributed = fillInt(&place.EmployeeCountExact, data.EmployeeCount) || contributed
	contributed = fillString(&place.CompanyType, data.CompanyType) || contributed

	if data.YearFounded != nil && fillInt(&place.YearFounded, data.YearFounded) {
		age := now.Year() - *data.YearFounded
		if age >= 0 {
			place.CompanyAgeYears = &age
		}
		contributed = true
	}

	return contributed
}

// applyLegal merges a registry record into the place. BusinessVerified
// mirrors the registry's own judgement; nothing here assumes a positive
// outcome.
func applyLegal(place *entity.Place, record *LegalRecord) bool {
	if record == nil {
		return false
	}

	contributed := false
	contributed = fillString(&place.TaxID, record.TaxID) || contributed
	contributed = fillString(&place.RegistrationState, record.RegistrationState) || contributed
	contributed = fillString(&place.BusinessStatus, record.BusinessStatus) || contributed
	contributed = fillString(&place.CompanyType, record.EntityType) || contributed

	if place.BusinessVerified == nil {
		verified := record.Registered
		place.BusinessVerified = &verified
		contributed = true
	}

	return contributed
}
