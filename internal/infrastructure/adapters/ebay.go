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

// EbayAdapter parses eBay search listings.
type EbayAdapter struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// NewEbayAdapter creates the eBay adapter.
func NewEbayAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *EbayAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EbayAdapter{fetcher: fetcher, logger: logger}
}

// Source returns the source identifier.
func (a *EbayAdapter) Source() string { return "ebay" }

// Name returns the store display name.
func (a *EbayAdapter) Name() string { return "eBay" }

// Regions returns the regions eBay serves.
func (a *EbayAdapter) Regions() []string { return []string{"global", "us", "uk", "de"} }

// Search fetches and parses one results page.
func (a *EbayAdapter) Search(ctx context.Context, intent domain.SearchIntent, _ string) ([]domain.RawListing, error) {
	searchURL := fmt.Sprintf("https://www.ebay.com/sch/i.html?_nkw=%s&_pgn=1", url.QueryEscape(queryTerms(intent)))
	// eBay supports price bounds as URL params.
	if intent.MinPrice != nil {
		searchURL += fmt.Sprintf("&_udlo=%.0f", *intent.MinPrice)
	}
	if intent.MaxPrice != nil {
		searchURL += fmt.Sprintf("&_udhi=%.0f", *intent.MaxPrice)
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
	doc.Find("li.s-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(listings) >= perSiteLimit {
			return false
		}
		// "More items like this" separator rows carry the tagblock class.
		if item.Find(".s-item__title--tagblock").Length() > 0 {
			return true
		}

		title := selText(item, ".s-item__title")
		if title == "" || title == "Shop on eBay" {
			return true
		}

		price, ok := extractPrice(selText(item, ".s-item__price"))
		if !ok {
			return true
		}

		listing := domain.RawListing{
			Source:   a.Source(),
			Title:    title,
			Price:    price,
			Currency: "USD",
			URL:      selAttr(item, "href", "a.s-item__link"),
			ImageURL: imageURL(item, ".s-item__image-img", "img"),
			Rating:   extractRating(selText(item, ".x-star-rating")),
			InStock:  true,
		}
		listing.ID = listingID(a.Source(), title, listing.URL)

		if orig, ok := extractPrice(selText(item, ".s-item__price--strike")); ok && orig > price {
			listing.OriginalPrice = &orig
		}
		if shipping := selText(item, ".s-item__shipping"); strings.Contains(shipping, "Free") {
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
