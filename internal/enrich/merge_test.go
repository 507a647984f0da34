package enrich

import (
	"testing"
	"time"

	"github.com/octobees/leadscout/api/internal/entity"
)

func TestApplyFirmographicsFillsEmptyOnly(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	existing := "Software"
	place := entity.Place{Name: "Acme", Industry: &existing}

	employees := 42
	year := 2016
	data := &Firmographics{
		Industry:      "Hospitality",
		RevenueRange:  "$1M-$5M",
		EmployeeCount: &employees,
		YearFounded:   &year,
	}

	if !applyFirmographics(&place, data, now) {
		t.Fatalf("expected contribution reported")
	}

	if *place.Industry != "Software" {
		t.Fatalf("existing industry must be kept, got %q", *place.Industry)
	}
	if place.RevenueRange == nil || *place.RevenueRange != "$1M-$5M" {
		t.Fatalf("expected revenue filled, got %v", place.RevenueRange)
	}
	if place.EmployeeCountExact == nil || *place.EmployeeCountExact != 42 {
		t.Fatalf("expected employee count filled, got %v", place.EmployeeCountExact)
	}
	if place.YearFounded == nil || *place.YearFounded != 2016 {
		t.Fatalf("expected year founded filled, got %v", place.YearFounded)
	}
	if place.CompanyAgeYears == nil || *place.CompanyAgeYears != 10 {
		t.Fatalf("expected company age derived from year founded, got %v", place.CompanyAgeYears)
	}
}

func TestApplyFirmographicsNilAndEmpty(t *testing.T) {
	place := entity.Place{Name: "Acme"}
	if applyFirmographics(&place, nil, time.Now()) {
		t.Fatalf("nil payload must not contribute")
	}
	if applyFirmographics(&place, &Firmographics{}, time.Now()) {
		t.Fatalf("empty payload must not contribute")
	}
	if place.Industry != nil || place.RevenueRange != nil {
		t.Fatalf("empty payload must not clear or set fields: %+v", place)
	}
}

func TestApplyLegalMirrorsRegistryJudgement(t *testing.T) {
	place := entity.Place{Name: "Acme"}
	record := &LegalRecord{
		TaxID:             "12-3456789",
		RegistrationState: "TX",
		BusinessStatus:    "active",
		EntityType:        "LLC",
		Registered:        true,
	}

	if !applyLegal(&place, record) {
		t.Fatalf("expected contribution reported")
	}
	if place.BusinessVerified == nil || !*place.BusinessVerified {
		t.Fatalf("expected business verified true, got %v", place.BusinessVerified)
	}
	if place.TaxID == nil || *place.TaxID != "12-3456789" {
		t.Fatalf("expected tax id filled, got %v", place.TaxID)
	}
	if place.CompanyType == nil || *place.CompanyType != "LLC" {
		t.Fatalf("expected entity type filled, got %v", place.CompanyType)
	}

	// An unregistered record still answers the question, just negatively.
	unregistered := entity.Place{Name: "Ghost Co"}
	applyLegal(&unregistered, &LegalRecord{Registered: false})
	if unregistered.BusinessVerified == nil || *unregistered.BusinessVerified {
		t.Fatalf("expected business verified false, got %v", unregistered.BusinessVerified)
	}
}

func TestFillString(t *testing.T) {
	var dst *string
	if !fillString(&dst, "value") || *dst != "value" {
		t.Fatalf("expected fill into empty field")
	}
	if fillString(&dst, "other") {
		t.Fatalf("expected existing value kept")
	}
	if *dst != "value" {
		t.Fatalf("expected value unchanged, got %q", *dst)
	}
	if fillString(&dst, "  ") {
		t.Fatalf("whitespace must not count as a value")
	}

	blank := "   "
	dst = &blank
	if !fillString(&dst, "real") || *dst != "real" {
		t.Fatalf("expected blank existing value replaced")
	}
}
