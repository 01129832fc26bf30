// Package adapters contains one site adapter per supported e-commerce
// source. Every adapter fetches the source's search page through the shared
// scraping proxy and parses it into normalized raw listings.
package adapters

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/powersearch/backend/internal/domain"
)

// perSiteLimit caps how many listings one adapter returns per search.
const perSiteLimit = 10

var (
	priceValueRegex  = regexp.MustCompile(`[\d,]+\.\d+|\d+`)
	digitsOnlyRegex  = regexp.MustCompile(`[^\d]`)
	ratingValueRegex = regexp.MustCompile(`\d+(\.\d+)?`)
)

// extractPrice pulls the first monetary value out of free text like
// "$1,299.99" or "US $24.99 to $49.99" (range text takes the low bound).
func extractPrice(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if idx := strings.Index(text, " to "); idx > 0 {
		text = text[:idx]
	}
	match := priceValueRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractRating pulls a 0-5 rating value out of text like
// "4.5 out of 5 stars".
func extractRating(text string) *float64 {
	match := ratingValueRegex.FindString(text)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

// extractCount pulls an integer count out of text like "1,234" or "(567)".
func extractCount(text string) int {
	digits := digitsOnlyRegex.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return v
}

// absoluteURL resolves href against the site base when relative.
// Protocol-relative URLs get https.
func absoluteURL(base, href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	default:
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}
}

// listingID derives a stable per-source listing identifier.
func listingID(source, title, url string) string {
	sum := md5.Sum([]byte(title + "-" + url))
	return fmt.Sprintf("%s_%s", source, hex.EncodeToString(sum[:])[:10])
}

// selText returns the trimmed text of the first match among the given
// selectors.
func selText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(s.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// selAttr returns the named attribute of the first match among the given
// selectors.
func selAttr(s *goquery.Selection, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := s.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// imageURL tries src then data-src on the first matching element.
func imageURL(s *goquery.Selection, selectors ...string) string {
	if v := selAttr(s, "src", selectors...); v != "" {
		return v
	}
	return selAttr(s, "data-src", selectors...)
}

// adapterErr wraps any source-specific failure in the uniform adapter
// failure signal.
func adapterErr(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrAdapterFailed, source, err)
}

// parseDocument parses fetched HTML, mapping parser failures to the uniform
// adapter error.
func parseDocument(source, html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, adapterErr(source, err)
	}
	return doc, nil
}

// queryTerms joins intent terms for URL encoding, falling back to the
// processed query string.
func queryTerms(intent domain.SearchIntent) string {
	if len(intent.Terms) > 0 {
		return strings.Join(intent.Terms, " ")
	}
	return intent.Query
}
