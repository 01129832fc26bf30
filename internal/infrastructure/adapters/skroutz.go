package adapters

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
	"github.com/powersearch/backend/internal/infrastructure/scraper"
)

// SkroutzAdapter parses Skroutz search listings.
type SkroutzAdapter struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// NewSkroutzAdapter creates the Skroutz adapter.
func NewSkroutzAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *SkroutzAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkroutzAdapter{fetcher: fetcher, logger: logger}
}

// Source returns the source identifier.
func (a *SkroutzAdapter) Source() string { return "skroutz" }

// Name returns the store display name.
func (a *SkroutzAdapter) Name() string { return "Skroutz" }

// Regions returns the regions Skroutz serves.
func (a *SkroutzAdapter) Regions() []string { return []string{"global", "eu", "gr"} }

// Search fetches and parses one results page.
func (a *SkroutzAdapter) Search(ctx context.Context, intent domain.SearchIntent, _ string) ([]domain.RawListing, error) {
	searchURL := fmt.Sprintf("https://www.skroutz.gr/search?keyphrase=%s&page=1", url.QueryEscape(queryTerms(intent)))
	if intent.MinPrice != nil && intent.MaxPrice != nil {
		searchURL += fmt.Sprintf("&price_min=%.0f&price_max=%.0f", *intent.MinPrice, *intent.MaxPrice)
	}

	html, err := a.fetcher.Fetch(ctx, searchURL, scraper.Options{RenderJS: true})
	if err != nil {
		return nil, adapterErr(a.Source(), err)
	}

	doc, err := parseDocument(a.Source(), html)
	if err != nil {
		return nil, err
	}

	listings := parseProductItems(doc, a.Source(), "EUR")
	a.logger.Debug("parsed listings",
		zap.String("source", a.Source()),
		zap.Int("count", len(listings)))
	return listings, nil
}

// parseProductItems handles the shared product-item card markup Rakuten and
// Skroutz both render.
func parseProductItems(doc *goquery.Document, source, currency string) []domain.RawListing {
	var listings []domain.RawListing
	doc.Find("div.product-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(listings) >= perSiteLimit {
			return false
		}

		title := selText(item, "h2.product-title")
		if title == "" {
			return true
		}
		price, ok := extractPrice(selText(item, ".price-current"))
		if !ok {
			return true
		}

		listing := domain.RawListing{
			Source:      source,
			Title:       title,
			Price:       price,
			Currency:    currency,
			URL:         selAttr(item, "href", "a.product-title"),
			ImageURL:    imageURL(item, "img.item-image"),
			Rating:      extractRating(selText(item, ".item-rating")),
			ReviewCount: extractCount(selText(item, ".item-reviews")),
			InStock:     price > 0,
		}
		if sku, exists := item.Attr("data-sku"); exists && sku != "" {
			listing.ID = source + "_" + sku
		} else {
			listing.ID = listingID(source, title, listing.URL)
		}

		if orig, ok := extractPrice(selText(item, ".original-price")); ok && orig > price {
			listing.OriginalPrice = &orig
		}
		if item.Find(".item-badge").Length() > 0 {
			listing.FreeShipping = true
		}

		listings = append(listings, listing)
		return true
	})
	return listings
}
