package usecase

import (
	"sort"
	"strings"

	"github.com/powersearch/backend/internal/domain"
)

// AssemblerConfig bounds the response shape.
type AssemblerConfig struct {
	DefaultLimit   int
	MaxLimit       int
	BestDealsCount int
}

// Assembler applies filters, pagination, and the best-deals selection to a
// ranked product set.
type Assembler struct {
	cfg AssemblerConfig
}

// NewAssembler creates an assembler with sane bounds for unset fields.
func NewAssembler(cfg AssemblerConfig) *Assembler {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.BestDealsCount <= 0 {
		cfg.BestDealsCount = 5
	}
	return &Assembler{cfg: cfg}
}

// Filter narrows the merged set. Explicit filter bounds win over
// intent-derived bounds; adapters are not trusted to have filtered, so price
// bounds are re-enforced here regardless. Products with a non-positive
// selected price are dropped and counted, never ranked.
func (a *Assembler) Filter(products []domain.MergedProduct, filters domain.SearchFilters, intent domain.SearchIntent) (kept []domain.MergedProduct, dropped int) {
	minPrice := filters.MinPrice
	if minPrice == nil {
		minPrice = intent.MinPrice
	}
	maxPrice := filters.MaxPrice
	if maxPrice == nil {
		maxPrice = intent.MaxPrice
	}
	minRating := filters.MinRating
	if minRating == nil {
		minRating = intent.MinRating
	}

	brandSet := lowerSet(filters.Brands)
	categorySet := lowerSet(filters.Categories)
	sourceSet := lowerSet(filters.Sources)

	kept = make([]domain.MergedProduct, 0, len(products))
	for _, p := range products {
		if p.Price <= 0 {
			dropped++
			continue
		}
		if minPrice != nil && p.Price < *minPrice {
			continue
		}
		if maxPrice != nil && p.Price > *maxPrice {
			continue
		}
		if minRating != nil && ratingOf(&p) < *minRating {
			continue
		}
		if len(brandSet) > 0 {
			if _, ok := brandSet[strings.ToLower(p.Brand)]; !ok {
				continue
			}
		}
		if len(categorySet) > 0 {
			if _, ok := categorySet[strings.ToLower(p.Category)]; !ok {
				continue
			}
		}
		if len(sourceSet) > 0 && !anySourceIn(p.AllSources, sourceSet) {
			continue
		}
		if filters.FreeShipping && !p.FreeShipping {
			continue
		}
		if filters.MinDealScore != nil && p.DealScore < *filters.MinDealScore {
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

// Page slices the sorted set. A page past the available results yields an
// empty slice, not an error. Returns the slice plus the effective page and
// limit after clamping.
func (a *Assembler) Page(products []domain.MergedProduct, page, limit int) ([]domain.MergedProduct, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = a.cfg.DefaultLimit
	}
	if limit > a.cfg.MaxLimit {
		limit = a.cfg.MaxLimit
	}

	start := (page - 1) * limit
	if start >= len(products) {
		return []domain.MergedProduct{}, page, limit
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}
	return products[start:end], page, limit
}

// BestDeals returns the top-K products by deal score over the full filtered
// set, independent of the current page.
func (a *Assembler) BestDeals(products []domain.MergedProduct) []domain.MergedProduct {
	deals := make([]domain.MergedProduct, len(products))
	copy(deals, products)
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].DealScore > deals[j].DealScore
	})
	if len(deals) > a.cfg.BestDealsCount {
		deals = deals[:a.cfg.BestDealsCount]
	}
	return deals
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

func anySourceIn(sources []string, set map[string]struct{}) bool {
	for _, s := range sources {
		if _, ok := set[strings.ToLower(s)]; ok {
			return true
		}
	}
	return false
}
