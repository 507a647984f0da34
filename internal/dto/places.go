package dto

// ListFilter contains query parameters for place listing endpoints.
type ListFilter struct {
	Q               string
	Category        string
	City            string
	MinRating       *float64
	EnrichmentLevel string
	WebsiteFilter   string
	Sort            string
	Page            int
	PerPage         int
}
