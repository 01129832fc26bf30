package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("POWERSEARCH_SERVER_PORT")
		os.Unsetenv("POWERSEARCH_SERVER_ENVIRONMENT")
		os.Unsetenv("POWERSEARCH_SCRAPER_API_KEY")
		os.Unsetenv("POWERSEARCH_SCRAPER_BASE_URL")
		os.Unsetenv("POWERSEARCH_SCRAPER_MAX_RETRIES")
		os.Unsetenv("POWERSEARCH_OPENAI_API_KEY")
		os.Unsetenv("POWERSEARCH_OPENAI_CHAT_MODEL")
		os.Unsetenv("POWERSEARCH_SEARCH_DEFAULT_LIMIT")
		os.Unsetenv("POWERSEARCH_SEARCH_MAX_LIMIT")
		os.Unsetenv("POWERSEARCH_SEARCH_MAX_CONCURRENT")
		os.Unsetenv("POWERSEARCH_MATCHING_SIMILARITY_THRESHOLD")
		os.Unsetenv("POWERSEARCH_CACHE_ENABLED")
		os.Unsetenv("POWERSEARCH_CACHE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		// Set required API key
		os.Setenv("POWERSEARCH_SCRAPER_API_KEY", "test-key")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Scraper.BaseURL != "http://api.scraperapi.com" {
			t.Errorf("Scraper.BaseURL = %s, want http://api.scraperapi.com", cfg.Scraper.BaseURL)
		}
		if cfg.Scraper.MaxRetries != 3 {
			t.Errorf("Scraper.MaxRetries = %d, want 3", cfg.Scraper.MaxRetries)
		}
		if cfg.OpenAI.ChatModel != "gpt-3.5-turbo" {
			t.Errorf("OpenAI.ChatModel = %s, want gpt-3.5-turbo", cfg.OpenAI.ChatModel)
		}
		if cfg.Search.GlobalBudget != 45*time.Second {
			t.Errorf("Search.GlobalBudget = %v, want 45s", cfg.Search.GlobalBudget)
		}
		if cfg.Search.DefaultLimit != 20 {
			t.Errorf("Search.DefaultLimit = %d, want 20", cfg.Search.DefaultLimit)
		}
		if cfg.Search.MaxLimit != 100 {
			t.Errorf("Search.MaxLimit = %d, want 100", cfg.Search.MaxLimit)
		}
		if cfg.Matching.SimilarityThreshold != 0.85 {
			t.Errorf("Matching.SimilarityThreshold = %v, want 0.85", cfg.Matching.SimilarityThreshold)
		}
		if !cfg.Matching.Transitive {
			t.Error("Matching.Transitive = false, want true")
		}
		if !cfg.Cache.Enabled {
			t.Error("Cache.Enabled = false, want true")
		}
		if cfg.Cache.TTL != 15*time.Minute {
			t.Errorf("Cache.TTL = %v, want 15m", cfg.Cache.TTL)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("POWERSEARCH_SERVER_PORT", "9090")
		os.Setenv("POWERSEARCH_SERVER_ENVIRONMENT", "production")
		os.Setenv("POWERSEARCH_SCRAPER_API_KEY", "custom-api-key")
		os.Setenv("POWERSEARCH_SCRAPER_BASE_URL", "http://proxy.internal")
		os.Setenv("POWERSEARCH_OPENAI_API_KEY", "sk-test")
		os.Setenv("POWERSEARCH_OPENAI_CHAT_MODEL", "gpt-4o-mini")
		os.Setenv("POWERSEARCH_SEARCH_DEFAULT_LIMIT", "10")
		os.Setenv("POWERSEARCH_SEARCH_MAX_LIMIT", "50")
		os.Setenv("POWERSEARCH_CACHE_TTL", "1h")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Scraper.APIKey != "custom-api-key" {
			t.Errorf("Scraper.APIKey = %s, want custom-api-key", cfg.Scraper.APIKey)
		}
		if cfg.Scraper.BaseURL != "http://proxy.internal" {
			t.Errorf("Scraper.BaseURL = %s, want http://proxy.internal", cfg.Scraper.BaseURL)
		}
		if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
			t.Errorf("OpenAI.ChatModel = %s, want gpt-4o-mini", cfg.OpenAI.ChatModel)
		}
		if cfg.Search.DefaultLimit != 10 {
			t.Errorf("Search.DefaultLimit = %d, want 10", cfg.Search.DefaultLimit)
		}
		if cfg.Search.MaxLimit != 50 {
			t.Errorf("Search.MaxLimit = %d, want 50", cfg.Search.MaxLimit)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
	})

	t.Run("fails without scraper API key", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want missing API key error")
		}
	})

	t.Run("fails on out-of-range similarity threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("POWERSEARCH_SCRAPER_API_KEY", "test-key")
		os.Setenv("POWERSEARCH_MATCHING_SIMILARITY_THRESHOLD", "1.5")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want threshold validation error")
		}
	})

	t.Run("fails when max_limit is below default_limit", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("POWERSEARCH_SCRAPER_API_KEY", "test-key")
		os.Setenv("POWERSEARCH_SEARCH_DEFAULT_LIMIT", "50")
		os.Setenv("POWERSEARCH_SEARCH_MAX_LIMIT", "10")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want limit validation error")
		}
	})

	t.Run("fails on non-positive max_concurrent", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("POWERSEARCH_SCRAPER_API_KEY", "test-key")
		os.Setenv("POWERSEARCH_SEARCH_MAX_CONCURRENT", "0")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want max_concurrent validation error")
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Scraper:  ScraperConfig{APIKey: "key"},
			Search:   SearchConfig{MaxConcurrent: 5, DefaultLimit: 20, MaxLimit: 100},
			Matching: MatchingConfig{SimilarityThreshold: 0.85},
		}
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		if err := validate(base()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("rejects zero threshold", func(t *testing.T) {
		cfg := base()
		cfg.Matching.SimilarityThreshold = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want threshold error")
		}
	})
}
