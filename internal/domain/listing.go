package domain

// RawListing is the normalized output of one site adapter for one item.
// It is immutable once produced and consumed exactly once by the matcher.
type RawListing struct {
	ID            string            `json:"id"`
	Source        string            `json:"source"` // e.g., "amazon"
	Title         string            `json:"title"`
	Price         float64           `json:"price"`
	Currency      string            `json:"currency"`
	OriginalPrice *float64          `json:"original_price,omitempty"`
	Rating        *float64          `json:"rating,omitempty"` // 0-5
	ReviewCount   int               `json:"review_count"`
	URL           string            `json:"url"`
	ImageURL      string            `json:"image,omitempty"`
	Brand         string            `json:"brand,omitempty"`
	Category      string            `json:"category,omitempty"`
	InStock       bool              `json:"in_stock"`
	ShippingCost  *float64          `json:"shipping_cost,omitempty"`
	FreeShipping  bool              `json:"free_shipping"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// HasRating reports whether the listing carries a usable rating value.
func (l *RawListing) HasRating() bool {
	return l.Rating != nil && *l.Rating > 0
}
