// Package scraper wraps the ScraperAPI rendering proxy used by every site
// adapter to fetch e-commerce search pages.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/powersearch/backend/internal/domain"
)

// maxResponseBytes caps how much HTML one fetch may return.
const maxResponseBytes = 8 << 20

// Options configure one proxied fetch.
type Options struct {
	// CountryCode routes the request through a geo-specific proxy,
	// e.g. "gb" for amazon.co.uk.
	CountryCode string
	// RenderJS asks the proxy to execute page JavaScript before returning.
	RenderJS bool
}

// Fetcher retrieves one URL through the scraping proxy.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string, opts Options) (string, error)
}

// Client handles communication with the ScraperAPI proxy. A single client is
// shared by all adapters; the rate limiter protects the account-level quota.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	maxRetries  int
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new proxy client.
func NewClient(apiKey, baseURL string, timeout time.Duration, maxRetries int, perSecond float64, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if perSecond <= 0 {
		perSecond = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		maxRetries:  maxRetries,
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), 10),
		logger:      logger,
	}
}

// Fetch retrieves the target URL through the proxy, retrying transient
// failures with exponential backoff. Returns the page HTML.
func (c *Client) Fetch(ctx context.Context, targetURL string, opts Options) (string, error) {
	params := url.Values{}
	params.Add("api_key", c.apiKey)
	params.Add("url", targetURL)
	if opts.CountryCode != "" {
		params.Add("country_code", opts.CountryCode)
	}
	if opts.RenderJS {
		params.Add("render", "true")
	}
	reqURL := fmt.Sprintf("%s/?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		body, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		c.logger.Warn("scraper fetch failed",
			zap.String("target", targetURL),
			zap.Int("attempt", attempt),
			zap.Error(err))

		// Rate-limit rejections and context expiry are not retried.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

// backoff returns the delay before a retry: 500ms, 1s, 2s, ...
func backoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "PowerSearch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrScraperAPIFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %w", domain.ErrScraperAPIFailure, domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrScraperAPIFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", domain.ErrScraperAPIFailure, err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: empty response body", domain.ErrScraperAPIFailure)
	}

	return string(body), nil
}
