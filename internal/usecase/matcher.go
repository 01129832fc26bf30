package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/powersearch/backend/internal/domain"
)

// Package-level compiled patterns for title normalization.
var (
	// \p{L}\p{N} rather than \w so Greek and other non-ASCII titles survive.
	titlePunctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	titleSpacesRegex      = regexp.MustCompile(`\s+`)

	// Model token patterns, e.g. "WH-1000XM4", "GTX 1080", "iPhone 13 Pro".
	modelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[A-Z]+[- ]?\d+[- ]?[A-Z0-9]*\b`),
		regexp.MustCompile(`(?i)\b[A-Z]+[- ]?\d+[- ]?(Pro|Max|Ultra|Plus)\b`),
		regexp.MustCompile(`(?i)\b\d+[A-Z]+\b`),
	}
)

// diacriticsStripper folds accented characters to their base form so that
// titles from regional storefronts normalize identically.
var diacriticsStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// titleStopWords are dropped during normalization: they describe packaging
// and marketing, not the product identity.
var titleStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"for": true, "with": true, "in": true, "on": true, "by": true, "from": true,
	"new": true, "original": true, "genuine": true, "official": true,
	"pack": true, "bundle": true, "set": true, "edition": true,
	"free": true, "shipping": true, "sale": true, "deal": true, "offer": true,
}

// knownBrands backs brand extraction when a listing carries no brand
// metadata. Checked at the start of the title first, then anywhere.
var knownBrands = []string{
	"apple", "samsung", "sony", "lg", "microsoft", "dell", "hp", "lenovo",
	"asus", "acer", "toshiba", "philips", "huawei", "google", "xiaomi",
	"bosch", "nikon", "canon", "bose", "nintendo", "panasonic", "intel",
	"amd", "nike", "adidas", "dyson", "logitech", "seagate", "western digital",
}

// MatcherConfig tunes cross-source matching behavior.
type MatcherConfig struct {
	// SimilarityThreshold above which two listings are considered the same
	// product (when brand/category metadata does not conflict).
	SimilarityThreshold float64
	// Transitive enables connected-components grouping: if A~B and B~C then
	// {A,B,C} group even when A-C similarity is below threshold. Recall over
	// precision; disable for representative-anchored grouping instead.
	Transitive bool
}

// Matcher groups raw listings from different adapters that refer to the same
// underlying product and synthesizes one MergedProduct per group.
type Matcher struct {
	cfg        MatcherConfig
	strategies []SimilarityStrategy
	logger     *zap.Logger

	// sourcePriority breaks price ties between listings with equal rating:
	// lower index wins.
	sourcePriority map[string]int
}

// NewMatcher creates a matcher. strategies is the ordered fallback chain
// used for pairwise scoring when advanced matching is on; sourcePriority
// lists source codes from most to least preferred for tie-breaks.
func NewMatcher(cfg MatcherConfig, strategies []SimilarityStrategy, sourcePriority []string, logger *zap.Logger) *Matcher {
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = 0.85
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	priority := make(map[string]int, len(sourcePriority))
	for i, s := range sourcePriority {
		priority[s] = i
	}
	return &Matcher{cfg: cfg, strategies: strategies, logger: logger, sourcePriority: priority}
}

// normalizedListing pairs a listing with its precomputed match keys.
type normalizedListing struct {
	listing domain.RawListing
	title   string
	brand   string
	model   string
}

// Match groups the listings and merges each group. With advanced off, only
// exact normalized-title equality matches. The result is deterministic for a
// given input set regardless of input order.
func (m *Matcher) Match(ctx context.Context, listings []domain.RawListing, advanced bool) []domain.MergedProduct {
	if len(listings) == 0 {
		return nil
	}

	normalized := make([]normalizedListing, len(listings))
	for i, l := range listings {
		normalized[i] = normalizedListing{
			listing: l,
			title:   NormalizeTitle(l.Title),
			brand:   extractBrand(l),
			model:   extractModel(l.Title),
		}
	}

	// Canonical input order makes grouping independent of adapter
	// completion order.
	sort.Slice(normalized, func(i, j int) bool {
		a, b := normalized[i], normalized[j]
		if a.listing.Source != b.listing.Source {
			return a.listing.Source < b.listing.Source
		}
		if a.title != b.title {
			return a.title < b.title
		}
		return a.listing.Price < b.listing.Price
	})

	var groups [][]normalizedListing
	if advanced {
		groups = m.groupBySimilarity(ctx, normalized)
	} else {
		groups = groupByExactTitle(normalized)
	}

	products := make([]domain.MergedProduct, 0, len(groups))
	for _, group := range groups {
		products = append(products, m.merge(group))
	}
	return products
}

// groupByExactTitle is the cheap fallback: one group per distinct normalized
// title.
func groupByExactTitle(items []normalizedListing) [][]normalizedListing {
	index := make(map[string]int)
	var groups [][]normalizedListing
	for _, item := range items {
		if i, ok := index[item.title]; ok {
			groups[i] = append(groups[i], item)
			continue
		}
		index[item.title] = len(groups)
		groups = append(groups, []normalizedListing{item})
	}
	return groups
}

// groupBySimilarity builds a similarity graph over all pairs and extracts
// groups. With transitive grouping this is a union-find over matched edges;
// otherwise each listing joins the first group whose representative it
// matches.
func (m *Matcher) groupBySimilarity(ctx context.Context, items []normalizedListing) [][]normalizedListing {
	if m.cfg.Transitive {
		parent := make([]int, len(items))
		for i := range parent {
			parent[i] = i
		}
		var find func(int) int
		find = func(x int) int {
			for parent[x] != x {
				parent[x] = parent[parent[x]]
				x = parent[x]
			}
			return x
		}
		union := func(a, b int) {
			ra, rb := find(a), find(b)
			if ra != rb {
				parent[rb] = ra
			}
		}

		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				if find(i) == find(j) {
					continue
				}
				if m.pairMatches(ctx, items[i], items[j]) {
					union(i, j)
				}
			}
		}

		groupIndex := make(map[int]int)
		var groups [][]normalizedListing
		for i, item := range items {
			root := find(i)
			gi, ok := groupIndex[root]
			if !ok {
				gi = len(groups)
				groupIndex[root] = gi
				groups = append(groups, nil)
			}
			groups[gi] = append(groups[gi], item)
		}
		return groups
	}

	// Non-transitive mode: compare against group representatives only, so
	// every member of a group is within threshold of its anchor.
	var groups [][]normalizedListing
	for _, item := range items {
		placed := false
		for gi := range groups {
			if m.pairMatches(ctx, groups[gi][0], item) {
				groups[gi] = append(groups[gi], item)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []normalizedListing{item})
		}
	}
	return groups
}

// pairMatches decides whether two listings refer to the same product:
// similarity above threshold and no brand/category conflict when both sides
// carry that metadata.
func (m *Matcher) pairMatches(ctx context.Context, a, b normalizedListing) bool {
	if a.brand != "" && b.brand != "" && a.brand != b.brand {
		return false
	}
	ca := strings.ToLower(a.listing.Category)
	cb := strings.ToLower(b.listing.Category)
	if ca != "" && cb != "" && ca != cb {
		return false
	}

	// A shared brand+model pair is a strong enough signal on its own.
	if a.brand != "" && a.brand == b.brand && a.model != "" && a.model == b.model {
		return true
	}

	score := m.score(ctx, a.title, b.title)
	return score >= m.cfg.SimilarityThreshold
}

// score runs the strategy chain, short-circuiting on the first strategy that
// answers. A strategy failure degrades the pair to the next strategy, never
// the whole request.
func (m *Matcher) score(ctx context.Context, a, b string) float64 {
	for _, strategy := range m.strategies {
		score, err := strategy.Score(ctx, a, b)
		if err != nil {
			m.logger.Debug("similarity strategy failed, falling back",
				zap.String("strategy", strategy.Name()), zap.Error(err))
			continue
		}
		return score
	}
	return 0
}

// merge synthesizes one MergedProduct from a group per the selection policy:
// lowest price wins, ties broken by higher rating, then by source priority.
func (m *Matcher) merge(group []normalizedListing) domain.MergedProduct {
	selected := group[0]
	for _, candidate := range group[1:] {
		if m.preferListing(candidate, selected) {
			selected = candidate
		}
	}

	sourceSet := make(map[string]struct{}, len(group))
	listings := make([]domain.RawListing, 0, len(group))
	freeShipping := false
	bestImage := selected.listing.ImageURL
	brand := selected.listing.Brand
	category := selected.listing.Category
	for _, item := range group {
		sourceSet[item.listing.Source] = struct{}{}
		listings = append(listings, item.listing)
		if item.listing.FreeShipping {
			freeShipping = true
		}
		if len(item.listing.ImageURL) > len(bestImage) {
			bestImage = item.listing.ImageURL
		}
		if brand == "" && item.listing.Brand != "" {
			brand = item.listing.Brand
		}
		if category == "" && item.listing.Category != "" {
			category = item.listing.Category
		}
	}

	allSources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		allSources = append(allSources, s)
	}
	sort.Strings(allSources)

	sel := selected.listing
	product := domain.MergedProduct{
		ID:            mergedProductID(selected.title, sel.Source),
		Title:         sel.Title,
		Price:         sel.Price,
		Currency:      sel.Currency,
		OriginalPrice: sel.OriginalPrice,
		URL:           sel.URL,
		ImageURL:      bestImage,
		Brand:         brand,
		Category:      category,
		FreeShipping:  freeShipping,
		Source:        sel.Source,
		SourceCount:   len(allSources),
		AllSources:    allSources,
		Listings:      listings,
	}

	product.Rating, product.ReviewCount = aggregateRating(group)
	product.DiscountPercentage = discountPercentage(sel.Price, sel.OriginalPrice)
	return product
}

// preferListing reports whether a should be selected over b.
func (m *Matcher) preferListing(a, b normalizedListing) bool {
	// Listings without a usable price never win selection.
	if a.listing.Price <= 0 {
		return false
	}
	if b.listing.Price <= 0 {
		return true
	}
	if a.listing.Price != b.listing.Price {
		return a.listing.Price < b.listing.Price
	}
	ra, rb := ratingValue(a.listing), ratingValue(b.listing)
	if ra != rb {
		return ra > rb
	}
	return m.priorityOf(a.listing.Source) < m.priorityOf(b.listing.Source)
}

func (m *Matcher) priorityOf(source string) int {
	if p, ok := m.sourcePriority[source]; ok {
		return p
	}
	return len(m.sourcePriority)
}

func ratingValue(l domain.RawListing) float64 {
	if l.Rating == nil {
		return 0
	}
	return *l.Rating
}

// aggregateRating is the review-count-weighted mean across contributing
// listings, falling back to a simple mean when no weights are available.
// The returned review count is the sum across distinct listings.
func aggregateRating(group []normalizedListing) (*float64, int) {
	var weightedSum, weightTotal, plainSum float64
	rated := 0
	totalReviews := 0
	for _, item := range group {
		totalReviews += item.listing.ReviewCount
		if !item.listing.HasRating() {
			continue
		}
		rated++
		r := *item.listing.Rating
		plainSum += r
		if item.listing.ReviewCount > 0 {
			weightedSum += r * float64(item.listing.ReviewCount)
			weightTotal += float64(item.listing.ReviewCount)
		}
	}
	if rated == 0 {
		return nil, totalReviews
	}
	var mean float64
	if weightTotal > 0 {
		mean = weightedSum / weightTotal
	} else {
		mean = plainSum / float64(rated)
	}
	return &mean, totalReviews
}

// discountPercentage computes the discount from original vs selected price,
// clamped to [0, 100]. Undefined (nil) without a meaningful original price.
func discountPercentage(price float64, original *float64) *float64 {
	if original == nil || *original <= 0 || price <= 0 {
		return nil
	}
	pct := (1 - price / *original) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &pct
}

// mergedProductID derives a stable identifier from the normalized title and
// the representative source.
func mergedProductID(normalizedTitle, source string) string {
	sum := sha1.Sum([]byte(normalizedTitle + "|" + source))
	return hex.EncodeToString(sum[:8])
}

// NormalizeTitle lowercases a title, folds diacritics, strips punctuation,
// and drops stopword tokens. Exported because the ranker scores term overlap
// against the same representation the matcher groups on.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	if folded, _, err := transform.String(diacriticsStripper, lowered); err == nil {
		lowered = folded
	}
	cleaned := titlePunctuationRegex.ReplaceAllString(lowered, " ")
	words := strings.Fields(cleaned)
	var kept []string
	for _, w := range words {
		if titleStopWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return titleSpacesRegex.ReplaceAllString(strings.Join(kept, " "), " ")
}

// extractBrand prefers listing metadata, then falls back to scanning the
// title for known brands.
func extractBrand(l domain.RawListing) string {
	if l.Brand != "" {
		return strings.ToLower(l.Brand)
	}
	title := strings.ToLower(l.Title)
	for _, brand := range knownBrands {
		if strings.HasPrefix(title, brand+" ") {
			return brand
		}
	}
	for _, brand := range knownBrands {
		if strings.Contains(" "+title+" ", " "+brand+" ") {
			return brand
		}
	}
	return ""
}

// extractModel pulls a candidate model token from the title, normalized to
// lowercase with separators removed so "WH-1000XM4" and "WH1000XM4" agree.
func extractModel(title string) string {
	for _, pattern := range modelPatterns {
		if match := pattern.FindString(title); match != "" {
			model := strings.ToLower(match)
			model = strings.ReplaceAll(model, "-", "")
			model = strings.ReplaceAll(model, " ", "")
			return model
		}
	}
	return ""
}
