package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/leadscout/api/internal/dto"
	"github.com/octobees/leadscout/api/internal/entity"
)

// ErrPlaceNotFound indicates no place matches the lookup criteria.
var ErrPlaceNotFound = errors.New("place not found")

// PlacesRepository describes persistence operations for place records.
type PlacesRepository interface {
	FindByQuery(ctx context.Context, query string, freshness time.Duration, limit int) ([]entity.Place, error)
	FindByPlaceIDs(ctx context.Context, placeIDs []string) ([]entity.Place, error)
	Upsert(ctx context.Context, place *entity.Place) (*entity.Place, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Place, error)
}

// pgxPool is the subset of pgxpool.Pool the repository needs.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ pgxPool = (*pgxpool.Pool)(nil)

// PGXPlacesRepository implements PlacesRepository using pgx.
type PGXPlacesRepository struct {
	pool pgxPool
}

// NewPGXPlacesRepository wires a pgx backed repository.
func NewPGXPlacesRepository(pool *pgxpool.Pool) *PGXPlacesRepository {
	return &PGXPlacesRepository{pool: pool}
}

const placeColumns = `
            id,
            place_id,
            name,
            address,
            city,
            country,
            latitude,
            longitude,
            category,
            phone,
            website,
            rating,
            reviews,
            industry,
            revenue_range,
            revenue_exact,
            employee_range,
            employee_count_exact,
            company_type,
            year_founded,
            company_age_years,
            email,
            email_verified,
            email_verified_at,
            phone_verified,
            phone_verified_at,
            website_status,
            website_verified_at,
            contact_form_url,
            contact_form_working,
            contact_form_verified_at,
            business_verified,
            tax_id,
            registration_state,
            business_status,
            enrichment_level,
            last_enriched_at,
            data_sources,
            raw,
            stored_at,
            created_at,
            updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring ILIKE pattern with user input escaped so
// LIKE metacharacters in the query match literally.
func likePattern(input string) string {
	return "%" + likeEscaper.Replace(input) + "%"
}

// FindByQuery returns cached places whose searchable text (name, address,
// category) contains the query substring and whose stored_at falls within the
// freshness window, newest first. An empty result is a cache miss, not an
// error.
func (r *PGXPlacesRepository) FindByQuery(ctx context.Context, query string, freshness time.Duration, limit int) ([]entity.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 60
	}

	pattern := likePattern(query)
	cutoff := time.Now().Add(-freshness)

	sqlQuery := `
        SELECT` + placeColumns + `
        FROM places
        WHERE (name || ' ' || COALESCE(address, '') || ' ' || COALESCE(category, '')) ILIKE $1
          AND stored_at >= $2
        ORDER BY stored_at DESC
        LIMIT $3`

	rows, err := r.pool.Query(ctx, sqlQuery, pattern, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query cached places: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// FindByPlaceIDs returns places matching the given provider identifiers.
func (r *PGXPlacesRepository) FindByPlaceIDs(ctx context.Context, placeIDs []string) ([]entity.Place, error) {
	if len(placeIDs) == 0 {
		return nil, nil
	}

	sqlQuery := `
        SELECT` + placeColumns + `
        FROM places
        WHERE place_id = ANY($1)`

	rows, err := r.pool.Query(ctx, sqlQuery, placeIDs)
	if err != nil {
		return nil, fmt.Errorf("query places by id: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// Upsert inserts or replaces a place keyed by place_id. This path overwrites
// all mutable fields; the merge-not-replace rule lives upstream in the
// enrichment pass, before a record reaches the store.
func (r *PGXPlacesRepository) Upsert(ctx context.Context, place *entity.Place) (*entity.Place, error) {
	if place == nil {
		return nil, fmt.Errorf("place payload is nil")
	}
	if place.PlaceID == "" {
		return nil, fmt.Errorf("place_id must not be empty")
	}

	sourcesJSON, err := json.Marshal(sourcesOrEmpty(place.DataSources))
	if err != nil {
		return nil, fmt.Errorf("marshal data_sources: %w", err)
	}

	raw := place.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	level := place.EnrichmentLevel
	if level == "" {
		level = entity.EnrichmentBasic
	}

	query := `
        INSERT INTO places (
            place_id, name, address, city, country, latitude, longitude,
            category, phone, website, rating, reviews,
            industry, revenue_range, revenue_exact, employee_range,
            employee_count_exact, company_type, year_founded, company_age_years,
            email, email_verified, email_verified_at,
            phone_verified, phone_verified_at,
            website_status, website_verified_at,
            contact_form_url, contact_form_working, contact_form_verified_at,
            business_verified, tax_id, registration_state, business_status,
            enrichment_level, last_enriched_at, data_sources, raw,
            stored_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
            $13, $14, $15, $16, $17, $18, $19, $20,
            $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
            $31, $32, $33, $34, $35, $36, $37::jsonb, $38,
            NOW(), NOW()
        )
        ON CONFLICT (place_id) DO UPDATE SET
            name = EXCLUDED.name,
            address = EXCLUDED.address,
            city = EXCLUDED.city,
            country = EXCLUDED.country,
            latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            category = EXCLUDED.category,
            phone = EXCLUDED.phone,
            website = EXCLUDED.website,
            rating = EXCLUDED.rating,
            reviews = EXCLUDED.reviews,
            industry = EXCLUDED.industry,
            revenue_range = EXCLUDED.revenue_range,
            revenue_exact = EXCLUDED.revenue_exact,
            employee_range = EXCLUDED.employee_range,
            employee_count_exact = EXCLUDED.employee_count_exact,
            company_type = EXCLUDED.company_type,
            year_founded = EXCLUDED.year_founded,
            company_age_years = EXCLUDED.company_age_years,
            email = EXCLUDED.email,
            email_verified = EXCLUDED.email_verified,
            email_verified_at = EXCLUDED.email_verified_at,
            phone_verified = EXCLUDED.phone_verified,
            phone_verified_at = EXCLUDED.phone_verified_at,
            website_status = EXCLUDED.website_status,
            website_verified_at = EXCLUDED.website_verified_at,
            contact_form_url = EXCLUDED.contact_form_url,
            contact_form_working = EXCLUDED.contact_form_working,
            contact_form_verified_at = EXCLUDED.contact_form_verified_at,
            business_verified = EXCLUDED.business_verified,
            tax_id = EXCLUDED.tax_id,
            registration_state = EXCLUDED.registration_state,
            business_status = EXCLUDED.business_status,
            enrichment_level = EXCLUDED.enrichment_level,
            last_enriched_at = EXCLUDED.last_enriched_at,
            data_sources = EXCLUDED.data_sources,
            raw = EXCLUDED.raw,
            stored_at = NOW(),
            updated_at = NOW()
        RETURNING id, stored_at, created_at, updated_at;
    `

	var statusArg any
	if place.WebsiteStatus != nil {
		statusArg = string(*place.WebsiteStatus)
	}

	row := r.pool.QueryRow(ctx, query,
		place.PlaceID,
		place.Name,
		place.Address,
		place.City,
		place.Country,
		place.Latitude,
		place.Longitude,
		place.Category,
		place.Phone,
		place.Website,
		place.Rating,
		place.Reviews,
		place.Industry,
		place.RevenueRange,
		place.RevenueExact,
		place.EmployeeRange,
		place.EmployeeCountExact,
		place.CompanyType,
		place.YearFounded,
		place.CompanyAgeYears,
		place.Email,
		place.EmailVerified,
		place.EmailVerifiedAt,
		place.PhoneVerified,
		place.PhoneVerifiedAt,
		statusArg,
		place.WebsiteVerifiedAt,
		place.ContactFormURL,
		place.ContactFormWorking,
		place.ContactFormCheckedAt,
		place.BusinessVerified,
		place.TaxID,
		place.RegistrationState,
		place.BusinessStatus,
		string(level),
		place.LastEnrichedAt,
		string(sourcesJSON),
		raw,
	)

	stored := *place
	stored.EnrichmentLevel = level
	if err := row.Scan(&stored.ID, &stored.StoredAt, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert place %q: %w", place.PlaceID, err)
	}

	return &stored, nil
}

// List retrieves places matching the provided filter, best-rated first.
func (r *PGXPlacesRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Place, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString(`SELECT` + placeColumns + ` FROM places`)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := likePattern(filter.Q)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(category) = LOWER($%d)", idx))
		args = append(args, filter.Category)
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.MinRating != nil {
		clauses = append(clauses, fmt.Sprintf("rating >= $%d", idx))
		args = append(args, *filter.MinRating)
		idx++
	}
	if filter.EnrichmentLevel != "" {
		clauses = append(clauses, fmt.Sprintf("enrichment_level = $%d", idx))
		args = append(args, filter.EnrichmentLevel)
		idx++
	}
	switch strings.ToLower(filter.WebsiteFilter) {
	case "missing":
		clauses = append(clauses, "website IS NULL")
	case "available":
		clauses = append(clauses, "website IS NOT NULL")
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	orderClause := "rating DESC NULLS LAST, reviews DESC NULLS LAST, name ASC"
	if strings.EqualFold(filter.Sort, "recent") {
		orderClause = "stored_at DESC, rating DESC NULLS LAST, name ASC"
	}
	baseQuery.WriteString(" ORDER BY ")
	baseQuery.WriteString(orderClause)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

func scanPlaces(rows pgx.Rows) ([]entity.Place, error) {
	var places []entity.Place
	for rows.Next() {
		var (
			p           entity.Place
			status      sql.NullString
			level       string
			sourcesJSON []byte
			raw         []byte
		)

		err := rows.Scan(
			&p.ID,
			&p.PlaceID,
			&p.Name,
			&p.Address,
			&p.City,
			&p.Country,
			&p.Latitude,
			&p.Longitude,
			&p.Category,
			&p.Phone,
			&p.Website,
			&p.Rating,
			&p.Reviews,
			&p.Industry,
			&p.RevenueRange,
			&p.RevenueExact,
			&p.EmployeeRange,
			&p.EmployeeCountExact,
			&p.CompanyType,
			&p.YearFounded,
			&p.CompanyAgeYears,
			&p.Email,
			&p.EmailVerified,
			&p.EmailVerifiedAt,
			&p.PhoneVerified,
			&p.PhoneVerifiedAt,
			&status,
			&p.WebsiteVerifiedAt,
			&p.ContactFormURL,
			&p.ContactFormWorking,
			&p.ContactFormCheckedAt,
			&p.BusinessVerified,
			&p.TaxID,
			&p.RegistrationState,
			&p.BusinessStatus,
			&level,
			&p.LastEnrichedAt,
			&sourcesJSON,
			&raw,
			&p.StoredAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}

		if status.Valid {
			ws := entity.WebsiteStatus(status.String)
			p.WebsiteStatus = &ws
		}
		p.EnrichmentLevel = entity.EnrichmentLevel(level)
		if len(sourcesJSON) > 0 {
			if err := json.Unmarshal(sourcesJSON, &p.DataSources); err != nil {
				return nil, fmt.Errorf("unmarshal data_sources: %w", err)
			}
		}
		if len(raw) > 0 {
			p.Raw = json.RawMessage(raw)
		}

		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate places: %w", err)
	}
	return places, nil
}

func sourcesOrEmpty(sources map[string]bool) map[string]bool {
	if sources == nil {
		return map[string]bool{}
	}
	return sources
}
