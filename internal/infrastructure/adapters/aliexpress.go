package adapters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
	"github.com/powersearch/backend/internal/infrastructure/scraper"
)

var aliexpressItemID = regexp.MustCompile(`/item/(\d+)\.html`)

// currencyBySymbol maps the price prefix symbols AliExpress renders.
var currencyBySymbol = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"₽": "RUB",
	"¥": "JPY",
	"₹": "INR",
}

// AliExpressAdapter parses AliExpress search listings.
type AliExpressAdapter struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// NewAliExpressAdapter creates the AliExpress adapter.
func NewAliExpressAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *AliExpressAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AliExpressAdapter{fetcher: fetcher, logger: logger}
}

// Source returns the source identifier.
func (a *AliExpressAdapter) Source() string { return "aliexpress" }

// Name returns the store display name.
func (a *AliExpressAdapter) Name() string { return "AliExpress" }

// Regions returns the regions AliExpress serves.
func (a *AliExpressAdapter) Regions() []string { return []string{"global", "us", "eu", "asia"} }

// Search fetches and parses one results page.
func (a *AliExpressAdapter) Search(ctx context.Context, intent domain.SearchIntent, _ string) ([]domain.RawListing, error) {
	searchURL := fmt.Sprintf("https://www.aliexpress.com/wholesale?SearchText=%s&page=1", url.QueryEscape(queryTerms(intent)))
	if intent.MinPrice != nil && intent.MaxPrice != nil {
		searchURL += fmt.Sprintf("&minPrice=%.0f&maxPrice=%.0f", *intent.MinPrice, *intent.MaxPrice)
	}

	html, err := a.fetcher.Fetch(ctx, searchURL, scraper.Options{RenderJS: true})
	if err != nil {
		return nil, adapterErr(a.Source(), err)
	}

	doc, err := parseDocument(a.Source(), html)
	if err != nil {
		return nil, err
	}

	containers := doc.Find(".list--gallery--C2f2tvm")
	if containers.Length() == 0 {
		containers = doc.Find(".product-card")
	}

	var listings []domain.RawListing
	containers.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(listings) >= perSiteLimit {
			return false
		}

		title := selText(item, ".manhattan--titleText--WccSjUS", ".product-title", `a.manhattan--container--1lP57Ag`)
		if title == "" {
			return true
		}

		priceText := selText(item, ".manhattan--price-sale--1CCSZfK", ".product-price", ".manhattan--price--3T6qm4R")
		price, ok := extractPrice(priceText)
		if !ok {
			return true
		}

		itemURL := selAttr(item, "href", `a[href*="/item/"]`, "a.manhattan--container--1lP57Ag")
		switch {
		case strings.HasPrefix(itemURL, "//"):
			itemURL = "https:" + itemURL
		case itemURL != "" && !strings.HasPrefix(itemURL, "http"):
			itemURL = "https://www.aliexpress.com" + itemURL
		}

		listing := domain.RawListing{
			Source:      a.Source(),
			Title:       title,
			Price:       price,
			Currency:    detectCurrency(priceText),
			URL:         itemURL,
			ImageURL:    imageURL(item, "img.manhattan--img--36QXbtQ", "img.product-img", "img"),
			Rating:      extractRating(selText(item, ".manhattan--evaluation--3cSMNl3", ".product-rating")),
			ReviewCount: extractCount(selText(item, ".manhattan--trade--2PeJIEB", ".product-reviews")),
			InStock:     true,
		}
		if strings.HasPrefix(listing.ImageURL, "//") {
			listing.ImageURL = "https:" + listing.ImageURL
		}
		if m := aliexpressItemID.FindStringSubmatch(itemURL); m != nil {
			listing.ID = a.Source() + "_" + m[1]
		} else {
			listing.ID = listingID(a.Source(), title, itemURL)
		}

		if orig, ok := extractPrice(selText(item, ".manhattan--price-original--3T6qm4R", ".product-price-original")); ok && orig > price {
			listing.OriginalPrice = &orig
		}
		if shipping := selText(item, ".manhattan--trade--2QoLtRn", ".product-shipping"); strings.Contains(strings.ToLower(shipping), "free") {
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

// detectCurrency inspects a rendered price for a known currency symbol.
// USD is the fallback when no symbol is recognized.
func detectCurrency(priceText string) string {
	for symbol, code := range currencyBySymbol {
		if strings.Contains(priceText, symbol) {
			return code
		}
	}
	return "USD"
}
