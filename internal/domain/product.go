package domain

// MergedProduct is the canonical cross-source entity surfaced to consumers.
// The matcher creates it; the ranker attaches score fields; it lives for one
// search request only.
type MergedProduct struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Price              float64      `json:"price"`
	Currency           string       `json:"currency"`
	OriginalPrice      *float64     `json:"original_price,omitempty"`
	DiscountPercentage *float64     `json:"discount_percentage,omitempty"`
	Rating             *float64     `json:"rating,omitempty"`
	ReviewCount        int          `json:"review_count"`
	URL                string       `json:"url"`
	ImageURL           string       `json:"image,omitempty"`
	Brand              string       `json:"brand,omitempty"`
	Category           string       `json:"category,omitempty"`
	FreeShipping       bool         `json:"free_shipping"`
	Source             string       `json:"source"` // source of the selected listing
	SourceCount        int          `json:"source_count"`
	AllSources         []string     `json:"all_sources"`
	Listings           []RawListing `json:"listings,omitempty"`

	// Score fields attached by the ranker.
	DealScore      float64 `json:"deal_score"`
	RelevanceScore float64 `json:"relevance_score"`
}

// FacetCount is one name + count pair inside a facet dimension.
type FacetCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Facets is the count breakdown of a result set along each filterable
// dimension, computed over the filtered set before pagination.
type Facets struct {
	Brands      []FacetCount `json:"brands"`
	Categories  []FacetCount `json:"categories"`
	Sources     []FacetCount `json:"sources"`
	PriceRanges []FacetCount `json:"price_ranges"`
	Ratings     []FacetCount `json:"ratings"`
}
