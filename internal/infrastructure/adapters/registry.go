package adapters

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
	"github.com/powersearch/backend/internal/infrastructure/scraper"
)

// Registry holds the registered site adapters and answers region queries.
// Registration order is preserved for stable fan-out ordering.
type Registry struct {
	adapters []domain.SiteAdapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry wires every built-in site adapter against the given
// fetcher.
func NewDefaultRegistry(fetcher scraper.Fetcher, logger *zap.Logger) *Registry {
	r := NewRegistry()
	r.Register(NewAmazonAdapter(fetcher, logger))
	r.Register(NewAmazonUKAdapter(fetcher, logger))
	r.Register(NewAmazonDEAdapter(fetcher, logger))
	r.Register(NewEbayAdapter(fetcher, logger))
	r.Register(NewWalmartAdapter(fetcher, logger))
	r.Register(NewBestBuyAdapter(fetcher, logger))
	r.Register(NewAliExpressAdapter(fetcher, logger))
	r.Register(NewRakutenAdapter(fetcher, logger))
	r.Register(NewSkroutzAdapter(fetcher, logger))
	return r
}

// Register appends an adapter. A second adapter with the same source
// identifier replaces the first.
func (r *Registry) Register(adapter domain.SiteAdapter) {
	for i, existing := range r.adapters {
		if existing.Source() == adapter.Source() {
			r.adapters[i] = adapter
			return
		}
	}
	r.adapters = append(r.adapters, adapter)
}

// ForRegion returns the adapters that serve the given region. Region codes
// are case-insensitive and an empty region means global.
func (r *Registry) ForRegion(region string) []domain.SiteAdapter {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = "global"
	}
	var matched []domain.SiteAdapter
	for _, adapter := range r.adapters {
		for _, served := range adapter.Regions() {
			if served == region {
				matched = append(matched, adapter)
				break
			}
		}
	}
	return matched
}

// Stores returns metadata for every registered adapter, sorted by source code.
func (r *Registry) Stores() []domain.Store {
	stores := make([]domain.Store, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		stores = append(stores, domain.Store{
			Code:    adapter.Source(),
			Name:    adapter.Name(),
			Regions: adapter.Regions(),
		})
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].Code < stores[j].Code })
	return stores
}
