package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
	"github.com/powersearch/backend/internal/infrastructure/scraper"
)

// WalmartAdapter parses Walmart search listings.
type WalmartAdapter struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// NewWalmartAdapter creates the Walmart adapter.
func NewWalmartAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *WalmartAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalmartAdapter{fetcher: fetcher, logger: logger}
}

// Source returns the source identifier.
func (a *WalmartAdapter) Source() string { return "walmart" }

// Name returns the store display name.
func (a *WalmartAdapter) Name() string { return "Walmart" }

// Regions returns the regions Walmart serves.
func (a *WalmartAdapter) Regions() []string { return []string{"global", "us"} }

// Search fetches and parses one results page.
func (a *WalmartAdapter) Search(ctx context.Context, intent domain.SearchIntent, _ string) ([]domain.RawListing, error) {
	searchURL := fmt.Sprintf("https://www.walmart.com/search?q=%s&page=1", url.QueryEscape(queryTerms(intent)))
	if intent.MinPrice != nil && intent.MaxPrice != nil {
		searchURL += fmt.Sprintf("&min_price=%.0f&max_price=%.0f", *intent.MinPrice, *intent.MaxPrice)
	}

	html, err := a.fetcher.Fetch(ctx, searchURL, scraper.Options{RenderJS: true})
	if err != nil {
		return nil, adapterErr(a.Source(), err)
	}

	doc, err := parseDocument(a.Source(), html)
	if err != nil {
		return nil, err
	}

	var listings []domain.RawListing
	doc.Find("div[data-item-id]").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(listings) >= perSiteLimit {
			return false
		}

		title := selText(item, `[data-automation-id="product-title"]`)
		if title == "" {
			return true
		}
		price, ok := extractPrice(selText(item, `[data-automation-id="product-price"]`))
		if !ok {
			return true
		}

		listing := domain.RawListing{
			Source:      a.Source(),
			Title:       title,
			Price:       price,
			Currency:    "USD",
			URL:         absoluteURL("https://www.walmart.com", selAttr(item, "href", `a[link-identifier="linkText"]`)),
			ImageURL:    imageURL(item, `img[data-automation-id="image"]`),
			ReviewCount: extractCount(selText(item, `[data-automation-id="product-review-count"]`)),
			InStock:     true,
		}
		if id, exists := item.Attr("data-item-id"); exists && id != "" {
			listing.ID = a.Source() + "_" + id
		} else {
			listing.ID = listingID(a.Source(), title, listing.URL)
		}

		// Walmart exposes the star rating on the aria-label of the stars node.
		if label, exists := item.Find(`[data-automation-id="product-stars"]`).First().Attr("aria-label"); exists {
			listing.Rating = extractRating(label)
		}
		if orig, ok := extractPrice(selText(item, `[data-automation-id="product-was-price"]`)); ok && orig > price {
			listing.OriginalPrice = &orig
		}
		if shipping := selText(item, `[data-automation-id="fulfillment-shipping"]`); strings.Contains(strings.ToLower(shipping), "free") {
			listing.FreeShipping = true
		}

		listings = append(listings, listing)
		return true
	})

	a.logger.Debug("parsed listings",
		zap.String("source", a.Source()),
		zap.Int("count", len(listings)))
	return listings, nil
}
