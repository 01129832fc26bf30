package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
)

// CachingAdapter wraps a site adapter and caches successful responses so
// repeated queries within the TTL skip the upstream fetch.
type CachingAdapter struct {
	inner  domain.SiteAdapter
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingAdapter wraps an adapter with response caching.
func NewCachingAdapter(inner domain.SiteAdapter, cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachingAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingAdapter{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// Source returns the wrapped adapter's source identifier.
func (a *CachingAdapter) Source() string { return a.inner.Source() }

// Name returns the wrapped adapter's display name.
func (a *CachingAdapter) Name() string { return a.inner.Name() }

// Regions returns the wrapped adapter's regions.
func (a *CachingAdapter) Regions() []string { return a.inner.Regions() }

// Search serves from cache when possible, otherwise delegates and stores the
// result. Failures and empty results are never cached.
func (a *CachingAdapter) Search(ctx context.Context, intent domain.SearchIntent, region string) ([]domain.RawListing, error) {
	key := searchCacheKey(a.inner.Source(), intent, region)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		if listings, ok := cached.([]domain.RawListing); ok {
			a.logger.Debug("cache hit",
				zap.String("source", a.Source()),
				zap.String("key", key))
			return listings, nil
		}
	}

	listings, err := a.inner.Search(ctx, intent, region)
	if err != nil {
		return nil, err
	}
	if len(listings) > 0 {
		if err := a.cache.Set(ctx, key, listings, a.ttl); err != nil {
			a.logger.Warn("cache store failed",
				zap.String("source", a.Source()),
				zap.Error(err))
		}
	}
	return listings, nil
}

// searchCacheKey builds a deterministic key from everything that changes the
// upstream request.
func searchCacheKey(source string, intent domain.SearchIntent, region string) string {
	var b strings.Builder
	b.WriteString("search:")
	b.WriteString(source)
	b.WriteString(":")
	b.WriteString(strings.ToLower(region))
	b.WriteString(":")
	b.WriteString(strings.ToLower(queryTerms(intent)))
	if intent.MinPrice != nil {
		fmt.Fprintf(&b, ":min=%.2f", *intent.MinPrice)
	}
	if intent.MaxPrice != nil {
		fmt.Fprintf(&b, ":max=%.2f", *intent.MaxPrice)
	}
	return b.String()
}

// WrapWithCache returns a registry whose adapters all cache their responses.
func WrapWithCache(r *Registry, cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *Registry {
	wrapped := NewRegistry()
	for _, adapter := range r.adapters {
		wrapped.Register(NewCachingAdapter(adapter, cache, ttl, logger))
	}
	return wrapped
}
