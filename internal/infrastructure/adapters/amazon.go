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

// AmazonAdapter covers the Amazon storefronts. The same markup is served on
// every marketplace domain, so one parser handles amazon, amazon.co.uk, and
// amazon.de with per-domain configuration.
type AmazonAdapter struct {
	source      string
	name        string
	domainName  string
	countryCode string
	regions     []string
	fetcher     scraper.Fetcher
	logger      *zap.Logger
}

// NewAmazonAdapter creates the amazon.com adapter.
func NewAmazonAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *AmazonAdapter {
	return newAmazonAdapter("amazon", "Amazon", "www.amazon.com", "", []string{"global", "us"}, fetcher, logger)
}

// NewAmazonUKAdapter creates the amazon.co.uk adapter, proxied through a GB
// exit node.
func NewAmazonUKAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *AmazonAdapter {
	return newAmazonAdapter("amazon.co.uk", "Amazon UK", "www.amazon.co.uk", "gb", []string{"global", "uk"}, fetcher, logger)
}

// NewAmazonDEAdapter creates the amazon.de adapter, proxied through a DE
// exit node.
func NewAmazonDEAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *AmazonAdapter {
	return newAmazonAdapter("amazon.de", "Amazon Germany", "www.amazon.de", "de", []string{"global", "eu", "de"}, fetcher, logger)
}

func newAmazonAdapter(source, name, domainName, countryCode string, regions []string, fetcher scraper.Fetcher, logger *zap.Logger) *AmazonAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmazonAdapter{
		source:      source,
		name:        name,
		domainName:  domainName,
		countryCode: countryCode,
		regions:     regions,
		fetcher:     fetcher,
		logger:      logger,
	}
}

// Source returns the source identifier.
func (a *AmazonAdapter) Source() string { return a.source }

// Name returns the store display name.
func (a *AmazonAdapter) Name() string { return a.name }

// Regions returns the regions this storefront serves.
func (a *AmazonAdapter) Regions() []string { return a.regions }

// Search fetches and parses one results page.
func (a *AmazonAdapter) Search(ctx context.Context, intent domain.SearchIntent, _ string) ([]domain.RawListing, error) {
	searchURL := a.searchURL(intent)

	html, err := a.fetcher.Fetch(ctx, searchURL, scraper.Options{CountryCode: a.countryCode, RenderJS: true})
	if err != nil {
		return nil, adapterErr(a.source, err)
	}

	doc, err := parseDocument(a.source, html)
	if err != nil {
		return nil, err
	}

	base := "https://" + a.domainName
	var listings []domain.RawListing
	doc.Find(`div[data-component-type="s-search-result"]`).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(listings) >= perSiteLimit {
			return false
		}

		title := selText(item, "h2 a span", "h2 span")
		href := selAttr(item, "href", "h2 a", "a.a-link-normal")
		if title == "" || href == "" {
			return true
		}

		price, ok := extractPrice(selText(item, ".a-price .a-offscreen"))
		if !ok {
			return true
		}

		listing := domain.RawListing{
			Source:      a.source,
			Title:       title,
			Price:       price,
			Currency:    a.currency(),
			URL:         absoluteURL(base, href),
			ImageURL:    imageURL(item, "img.s-image"),
			Rating:      extractRating(selText(item, "i.a-icon-star-small", "i.a-icon-star")),
			ReviewCount: extractCount(selText(item, "span.a-size-base.s-underline-text")),
			InStock:     true,
		}
		listing.ID = listingID(a.source, title, listing.URL)

		if orig, ok := extractPrice(selText(item, ".a-price.a-text-price .a-offscreen")); ok && orig > price {
			listing.OriginalPrice = &orig
		}
		if strings.Contains(item.Text(), "FREE delivery") {
			listing.FreeShipping = true
		}

		listings = append(listings, listing)
		return true
	})

	a.logger.Debug("parsed listings",
		zap.String("source", a.source),
		zap.Int("count", len(listings)))
	return listings, nil
}

// searchURL builds the results-page URL, pushing price bounds down as the
// rh=p_36 hint when both are present. The pipeline re-enforces the bounds
// regardless.
func (a *AmazonAdapter) searchURL(intent domain.SearchIntent) string {
	u := fmt.Sprintf("https://%s/s?k=%s", a.domainName, url.QueryEscape(queryTerms(intent)))
	if intent.MinPrice != nil && intent.MaxPrice != nil {
		u += fmt.Sprintf("&rh=p_36%%3A%d00-%d00", int(*intent.MinPrice), int(*intent.MaxPrice))
	}
	return u
}

func (a *AmazonAdapter) currency() string {
	switch a.source {
	case "amazon.co.uk":
		return "GBP"
	case "amazon.de":
		return "EUR"
	default:
		return "USD"
	}
}
