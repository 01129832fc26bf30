package domain

import (
	"context"
	"time"
)

// SiteAdapter retrieves and normalizes listings from one e-commerce source.
// Implementations map every source-specific failure to an error wrapping
// ErrAdapterFailed; a bad adapter must never abort the whole search.
type SiteAdapter interface {
	// Source returns the stable source identifier, e.g. "amazon".
	Source() string
	// Name returns the human-readable store name.
	Name() string
	// Regions returns the region codes this adapter serves.
	Regions() []string
	// Search performs one pass over the source for the given intent.
	Search(ctx context.Context, intent SearchIntent, region string) ([]RawListing, error)
}

// CacheRepository defines the interface for caching operations. The adapter
// response cache needs nothing beyond atomic get/put.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ChatClient rewrites free-text queries via an external language model.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder produces vector embeddings for text, used by the semantic
// similarity strategy.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
