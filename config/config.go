package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	OpenAI   OpenAIConfig
	Search   SearchConfig
	Matching MatchingConfig
	Cache    CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScraperConfig holds scraping proxy configuration
type ScraperConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
}

// OpenAIConfig holds OpenAI API configuration. The API key is optional:
// without it, natural-language interpretation and embedding similarity
// degrade to their local fallbacks.
type OpenAIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SearchConfig bounds the fan-out and the response shape
type SearchConfig struct {
	GlobalBudget   time.Duration `mapstructure:"global_budget"`
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
	BestDealsCount int           `mapstructure:"best_deals_count"`
	NLTimeout      time.Duration `mapstructure:"nl_timeout"`
}

// MatchingConfig tunes cross-source product matching. Transitive grouping is
// a deliberate recall-over-precision tradeoff, so it is exposed here rather
// than hidden as a constant.
type MatchingConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	Transitive          bool    `mapstructure:"transitive"`
	EmbeddingCacheSize  int     `mapstructure:"embedding_cache_size"`
}

// CacheConfig holds adapter response cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/powersearch/")

	// Environment variable settings
	v.SetEnvPrefix("POWERSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Scraper defaults
	v.SetDefault("scraper.base_url", "http://api.scraperapi.com")
	v.SetDefault("scraper.request_timeout", "30s")
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.rate_per_second", 5.0)

	// OpenAI defaults
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.chat_model", "gpt-3.5-turbo")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.request_timeout", "10s")

	// Search defaults
	v.SetDefault("search.global_budget", "45s")
	v.SetDefault("search.adapter_timeout", "20s")
	v.SetDefault("search.max_concurrent", 5)
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", 100)
	v.SetDefault("search.best_deals_count", 5)
	v.SetDefault("search.nl_timeout", "5s")

	// Matching defaults
	v.SetDefault("matching.similarity_threshold", 0.85)
	v.SetDefault("matching.transitive", true)
	v.SetDefault("matching.embedding_cache_size", 2048)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "15m")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Scraper.APIKey == "" {
		return fmt.Errorf("scraper API key is required (set POWERSEARCH_SCRAPER_API_KEY)")
	}

	if config.Matching.SimilarityThreshold <= 0 || config.Matching.SimilarityThreshold > 1 {
		return fmt.Errorf("matching similarity threshold must be in (0, 1], got: %v", config.Matching.SimilarityThreshold)
	}

	if config.Search.MaxConcurrent <= 0 {
		return fmt.Errorf("search max_concurrent must be positive, got: %d", config.Search.MaxConcurrent)
	}

	if config.Search.MaxLimit < config.Search.DefaultLimit {
		return fmt.Errorf("search max_limit (%d) must be >= default_limit (%d)",
			config.Search.MaxLimit, config.Search.DefaultLimit)
	}

	return nil
}
