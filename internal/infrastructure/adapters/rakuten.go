package adapters

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
	"github.com/powersearch/backend/internal/infrastructure/scraper"
)

// RakutenAdapter parses Rakuten Ichiba search listings.
type RakutenAdapter struct {
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// NewRakutenAdapter creates the Rakuten adapter.
func NewRakutenAdapter(fetcher scraper.Fetcher, logger *zap.Logger) *RakutenAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RakutenAdapter{fetcher: fetcher, logger: logger}
}

// Source returns the source identifier.
func (a *RakutenAdapter) Source() string { return "rakuten" }

// Name returns the store display name.
func (a *RakutenAdapter) Name() string { return "Rakuten" }

// Regions returns the regions Rakuten serves.
func (a *RakutenAdapter) Regions() []string { return []string{"global", "asia", "jp"} }

// Search fetches and parses one results page.
func (a *RakutenAdapter) Search(ctx context.Context, intent domain.SearchIntent, _ string) ([]domain.RawListing, error) {
	searchURL := fmt.Sprintf("https://search.rakuten.co.jp/search/mall/%s/?p=1", url.PathEscape(queryTerms(intent)))
	if intent.MinPrice != nil && intent.MaxPrice != nil {
		searchURL += fmt.Sprintf("&min=%.0f&max=%.0f", *intent.MinPrice, *intent.MaxPrice)
	}

	html, err := a.fetcher.Fetch(ctx, searchURL, scraper.Options{RenderJS: true})
	if err != nil {
		return nil, adapterErr(a.Source(), err)
	}

	doc, err := parseDocument(a.Source(), html)
	if err != nil {
		return nil, err
	}

	listings := parseProductItems(doc, a.Source(), "JPY")
	a.logger.Debug("parsed listings",
		zap.String("source", a.Source()),
		zap.Int("count", len(listings)))
	return listings, nil
}
