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

// BestBuyAdapter parses Best Buy search listings.
type BestBuyAdapter struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// NewBestBuyAdapter creates the Best Buy adapter.
func NewBestBuyAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *BestBuyAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BestBuyAdapter{fetcher: fetcher, logger: logger}
}

// Source returns the source identifier.
func (a *BestBuyAdapter) Source() string { return "bestbuy" }

// Name returns the store display name.
func (a *BestBuyAdapter) Name() string { return "Best Buy" }

// Regions returns the regions Best Buy serves.
func (a *BestBuyAdapter) Regions() []string { return []string{"global", "us"} }

// Search fetches and parses one results page.
func (a *BestBuyAdapter) Search(ctx context.Context, intent domain.SearchIntent, _ string) ([]domain.RawListing, error) {
	searchURL := fmt.Sprintf("https://www.bestbuy.com/site/searchpage.jsp?st=%s&cp=1", url.QueryEscape(queryTerms(intent)))
	if intent.MinPrice != nil && intent.MaxPrice != nil {
		searchURL += fmt.Sprintf("&qp=currentprice_facet%%3DPrice~%.0f%%20to%%20%.0f", *intent.MinPrice, *intent.MaxPrice)
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
	doc.Find("li.sku-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(listings) >= perSiteLimit {
			return false
		}

		title := selText(item, "h4.sku-title a", "h4.sku-header a", ".sku-title")
		if title == "" {
			return true
		}
		price, ok := extractPrice(selText(item, ".priceView-customer-price span", ".pricing-price .priceView-purchase-price"))
		if !ok {
			return true
		}

		listing := domain.RawListing{
			Source:   a.Source(),
			Title:    title,
			Price:    price,
			Currency: "USD",
			URL:      absoluteURL("https://www.bestbuy.com", selAttr(item, "href", "h4.sku-title a", "a.image-link", "a.sku-link")),
			ImageURL: imageURL(item, ".product-image img", "img.product-image"),
			InStock:  true,
		}
		if sku, exists := item.Attr("data-sku-id"); exists && sku != "" {
			listing.ID = a.Source() + "_" + sku
		} else {
			listing.ID = listingID(a.Source(), title, listing.URL)
		}

		if orig, ok := extractPrice(selText(item, ".pricing-price .priceView-was-price", ".price-was")); ok && orig > price {
			listing.OriginalPrice = &orig
		}
		if reviews := item.Find(".c-reviews").First(); reviews.Length() > 0 {
			if label, exists := reviews.Attr("aria-label"); exists {
				listing.Rating = extractRating(label)
			} else {
				listing.Rating = extractRating(reviews.Text())
			}
			listing.ReviewCount = extractCount(reviews.Text())
		}

		listings = append(listings, listing)
		return true
	})

	a.logger.Debug("parsed listings",
		zap.String("source", a.Source()),
		zap.Int("count", len(listings)))
	return listings, nil
}
