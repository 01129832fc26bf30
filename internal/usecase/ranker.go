package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/powersearch/backend/internal/domain"
)

// Deal score component caps. The components sum to at most 100.
const (
	dealDiscountCap     = 50.0
	dealRatingCap       = 25.0
	dealFreeShipBonus   = 5.0
	dealReviewVolumeCap = 20.0
)

// Relevance score weights.
const (
	relevanceExactPhrase   = 50.0
	relevanceAllTerms      = 40.0
	relevanceTermCoverage  = 30.0
	relevanceCompleteness  = 10.0
	relevanceRatingFactor  = 2.0
	relevanceReviewCap     = 5.0
	relevancePerSource     = 5.0
	relevanceSourceMaxMult = 3.0
)

// Ranker annotates merged products with deal and relevance scores, orders
// them by the requested sort key, and computes facets over the filtered set
// before pagination.
type Ranker struct{}

// NewRanker creates a Ranker.
func NewRanker() *Ranker { return &Ranker{} }

// ScoreAll attaches deal_score and relevance_score to every product in
// place.
func (r *Ranker) ScoreAll(products []domain.MergedProduct, intent domain.SearchIntent) {
	for i := range products {
		products[i].DealScore = dealScore(&products[i])
		products[i].RelevanceScore = relevanceScore(&products[i], intent)
	}
}

// dealScore is a composite of discount, rating, shipping, and
// logarithmically damped review volume, clamped to [0, 100].
func dealScore(p *domain.MergedProduct) float64 {
	score := 0.0

	if p.DiscountPercentage != nil {
		score += math.Min(*p.DiscountPercentage, dealDiscountCap)
	}

	if p.Rating != nil && *p.Rating > 0 {
		score += (*p.Rating / 5.0) * dealRatingCap
	}

	if p.FreeShipping {
		score += dealFreeShipBonus
	}

	if p.ReviewCount > 0 {
		// Log damping so very high review counts don't dominate.
		score += math.Min(dealReviewVolumeCap, 4*math.Log10(float64(p.ReviewCount)+1))
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return math.Round(score*10) / 10
}

// relevanceScore combines term overlap with the intent, data completeness,
// rating/review influence, and a multi-source confidence boost, capped 100.
func relevanceScore(p *domain.MergedProduct, intent domain.SearchIntent) float64 {
	title := NormalizeTitle(p.Title)
	relevance := 0.0

	query := strings.ToLower(strings.TrimSpace(intent.Query))
	switch {
	case query != "" && strings.Contains(strings.ToLower(p.Title), query):
		relevance += relevanceExactPhrase
	case len(intent.Terms) > 0 && allTermsPresent(title, intent.Terms):
		relevance += relevanceAllTerms
	case len(intent.Terms) > 0:
		matched := 0
		for _, term := range intent.Terms {
			if strings.Contains(title, term) {
				matched++
			}
		}
		relevance += relevanceTermCoverage * float64(matched) / float64(len(intent.Terms))
	}

	relevance += relevanceCompleteness * completeness(p)

	if p.Rating != nil && *p.Rating > 0 {
		relevance += *p.Rating * relevanceRatingFactor
	}
	if p.ReviewCount > 0 {
		relevance += math.Min(relevanceReviewCap, math.Log10(float64(p.ReviewCount)+1))
	}

	// Products confirmed on multiple sources rank higher at equal relevance.
	if p.SourceCount > 1 {
		relevance += relevancePerSource * math.Min(relevanceSourceMaxMult, float64(p.SourceCount))
	}

	if relevance > 100 {
		relevance = 100
	}
	return math.Round(relevance*10) / 10
}

func allTermsPresent(title string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(title, term) {
			return false
		}
	}
	return true
}

// completeness is the populated fraction of the optional fields.
func completeness(p *domain.MergedProduct) float64 {
	total := 6.0
	populated := 0.0
	if p.ImageURL != "" {
		populated++
	}
	if p.Brand != "" {
		populated++
	}
	if p.Category != "" {
		populated++
	}
	if p.Rating != nil {
		populated++
	}
	if p.ReviewCount > 0 {
		populated++
	}
	if p.OriginalPrice != nil {
		populated++
	}
	return populated / total
}

// Sort orders products by the requested key. Unknown keys must be rejected
// upstream; anything unrecognized here sorts by relevance. Sorting is stable
// over the canonical matcher output, so equal keys keep a deterministic
// order.
func (r *Ranker) Sort(products []domain.MergedProduct, sortBy string) {
	switch sortBy {
	case domain.SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case domain.SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case domain.SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			ri, rj := ratingOf(&products[i]), ratingOf(&products[j])
			if ri != rj {
				return ri > rj
			}
			return products[i].ReviewCount > products[j].ReviewCount
		})
	case domain.SortDiscount:
		// Entities with no discount sort last, not as zero.
		sort.SliceStable(products, func(i, j int) bool {
			di, dj := products[i].DiscountPercentage, products[j].DiscountPercentage
			if (di == nil) != (dj == nil) {
				return dj == nil
			}
			if di == nil {
				return false
			}
			return *di > *dj
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].RelevanceScore > products[j].RelevanceScore
		})
	}
}

func ratingOf(p *domain.MergedProduct) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// priceBucket boundaries follow the filter UI ranges.
func priceBucket(price float64) string {
	switch {
	case price < 50:
		return "under_50"
	case price < 100:
		return "50_100"
	case price < 200:
		return "100_200"
	case price < 500:
		return "200_500"
	case price < 1000:
		return "500_1000"
	default:
		return "over_1000"
	}
}

var priceBucketOrder = []string{"under_50", "50_100", "100_200", "200_500", "500_1000", "over_1000"}

func ratingBucket(p *domain.MergedProduct) string {
	if p.Rating == nil || *p.Rating == 0 {
		return "unrated"
	}
	r := *p.Rating
	switch {
	case r < 3:
		return "under_3"
	case r < 4:
		return "3_star"
	case r < 4.8:
		return "4_star"
	default:
		return "5_star"
	}
}

var ratingBucketOrder = []string{"5_star", "4_star", "3_star", "under_3", "unrated"}

// Facets computes the count breakdown over the (already filtered) set. It
// runs before pagination so counts reflect everything the caller could
// narrow into.
func (r *Ranker) Facets(products []domain.MergedProduct) domain.Facets {
	brands := make(map[string]int)
	categories := make(map[string]int)
	sources := make(map[string]int)
	priceRanges := make(map[string]int)
	ratings := make(map[string]int)

	for i := range products {
		p := &products[i]
		if p.Brand != "" {
			brands[p.Brand]++
		}
		if p.Category != "" {
			categories[p.Category]++
		}
		for _, s := range p.AllSources {
			sources[s]++
		}
		priceRanges[priceBucket(p.Price)]++
		ratings[ratingBucket(p)]++
	}

	return domain.Facets{
		Brands:      facetCountsByFrequency(brands),
		Categories:  facetCountsByFrequency(categories),
		Sources:     facetCountsByFrequency(sources),
		PriceRanges: facetCountsInOrder(priceRanges, priceBucketOrder),
		Ratings:     facetCountsInOrder(ratings, ratingBucketOrder),
	}
}

// facetCountsByFrequency returns counts sorted descending, names ascending on
// ties for determinism.
func facetCountsByFrequency(counts map[string]int) []domain.FacetCount {
	out := make([]domain.FacetCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, domain.FacetCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// facetCountsInOrder returns non-zero counts in the given bucket order.
func facetCountsInOrder(counts map[string]int, order []string) []domain.FacetCount {
	out := make([]domain.FacetCount, 0, len(order))
	for _, name := range order {
		if counts[name] > 0 {
			out = append(out, domain.FacetCount{Name: name, Count: counts[name]})
		}
	}
	return out
}
