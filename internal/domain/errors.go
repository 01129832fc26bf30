package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters fail validation
	// before any retrieval work begins.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoSourcesAvailable is returned when every adapter for a region
	// failed or none were applicable. Distinct from a query that matched
	// zero products.
	ErrNoSourcesAvailable = errors.New("no sources available")

	// ErrAdapterFailed is the uniform signal for any source-specific
	// failure: network error, parse error, rate limit, timeout.
	ErrAdapterFailed = errors.New("adapter failed")

	// ErrRateLimited is returned when an upstream provider rejects a
	// request for exceeding its rate limit.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrScraperAPIFailure is returned when a scraping proxy request fails.
	ErrScraperAPIFailure = errors.New("scraper API request failed")

	// ErrOpenAIFailure is returned when an OpenAI API request fails.
	ErrOpenAIFailure = errors.New("openai API request failed")

	// ErrCacheMiss is returned when data is not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)
