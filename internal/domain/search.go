package domain

// Supported sort keys for search results.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortDiscount  = "discount"
)

// ValidSortKey reports whether key is one of the supported sort orders.
// An empty key falls back to relevance.
func ValidSortKey(key string) bool {
	switch key {
	case "", SortRelevance, SortPriceAsc, SortPriceDesc, SortRating, SortDiscount:
		return true
	}
	return false
}

// SearchIntent is the structured, validated form of a user query. It is
// produced once per request by the query interpreter and read-only downstream.
type SearchIntent struct {
	Query     string   `json:"query"`           // processed query string
	RawQuery  string   `json:"raw_query"`       // query as the user typed it
	Terms     []string `json:"terms"`           // cleaned term list
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinPrice  *float64 `json:"min_price,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"` // implied by e.g. "good reviews"
}

// SearchFilters narrows the matched set before ranking-dependent facet
// computation. Explicit price bounds here win over intent-derived bounds.
type SearchFilters struct {
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	MinRating    *float64 `json:"min_rating,omitempty"`
	Brands       []string `json:"brands,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	FreeShipping bool     `json:"free_shipping,omitempty"`
	MinDealScore *float64 `json:"min_deal_score,omitempty"`
}

// SearchRequest is the single query interface consumed by the presentation
// layer.
type SearchRequest struct {
	Query            string        `json:"query"`
	Region           string        `json:"region"`
	Filters          SearchFilters `json:"filters"`
	SortBy           string        `json:"sort"`
	Page             int           `json:"page"`
	Limit            int           `json:"limit"`
	AdvancedMatching bool          `json:"advanced_matching"`
	UseOpenAI        bool          `json:"use_openai"`
	NaturalLanguage  bool          `json:"natural_language"`
}

// SourceStatus records the per-adapter outcome of one fan-out, for
// observability rather than the consumer contract.
type SourceStatus struct {
	Source    string  `json:"source"`
	OK        bool    `json:"ok"`
	Listings  int     `json:"listings"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

// SearchResponse is the full result of one search invocation.
type SearchResponse struct {
	Query          string          `json:"query"`
	ProcessedQuery string          `json:"processed_query,omitempty"`
	Products       []MergedProduct `json:"products"`
	BestDeals      []MergedProduct `json:"best_deals"`
	TotalResults   int             `json:"total_results"`
	Page           int             `json:"page"`
	Limit          int             `json:"limit"`
	Facets         Facets          `json:"facets"`
	ExecutionTime  float64         `json:"execution_time"` // seconds
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	Sources        []SourceStatus  `json:"sources,omitempty"`
	DroppedEntities int            `json:"dropped_entities,omitempty"`
}

// Region is one searchable market.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Store describes one supported e-commerce source and the regions it serves.
type Store struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Regions []string `json:"regions"`
}
