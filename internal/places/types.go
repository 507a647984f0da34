// Package places talks to the Google Places text-search provider: query
// expansion, paginated searches, per-place detail lookups and result
// deduplication.
package places

// Result is one raw business returned by the search provider. Phone and
// Website are empty until the detail enhancer fills them in.
type Result struct {
	PlaceID     string
	Name        string
	Address     string
	Latitude    *float64
	Longitude   *float64
	Category    string
	Rating      *float64
	UserRatings *int
	Phone       string
	Website     string
}

// provider status codes we care about.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusInvalidRequest = "INVALID_REQUEST"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
	statusRequestDenied  = "REQUEST_DENIED"
	statusNotFound       = "NOT_FOUND"
)

type searchResponse struct {
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
	NextPageToken string         `json:"next_page_token"`
	Results       []searchResult `json:"results"`
}

type searchResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	Geometry         struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type detailsResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Result       detailsResult `json:"result"`
}

type detailsResult struct {
	FormattedPhoneNumber     string `json:"formatted_phone_number"`
	InternationalPhoneNumber string `json:"international_phone_number"`
	Website                  string `json:"website"`
}
