package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/powersearch/backend/config"
	httpDelivery "github.com/powersearch/backend/internal/delivery/http"
	"github.com/powersearch/backend/internal/infrastructure/adapters"
	"github.com/powersearch/backend/internal/infrastructure/cache"
	"github.com/powersearch/backend/internal/infrastructure/openai"
	"github.com/powersearch/backend/internal/infrastructure/scraper"
	"github.com/powersearch/backend/internal/usecase"
)

// sourcePriority breaks merge ties between equally priced listings.
var sourcePriority = []string{
	"amazon", "amazon.co.uk", "amazon.de",
	"bestbuy", "walmart", "ebay",
	"rakuten", "skroutz", "aliexpress",
}

func main() {
	// Load .env before config so local development picks it up
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting PowerSearch backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	// Infrastructure
	fetcher := scraper.NewClient(
		cfg.Scraper.APIKey,
		cfg.Scraper.BaseURL,
		cfg.Scraper.RequestTimeout,
		cfg.Scraper.MaxRetries,
		cfg.Scraper.RatePerSecond,
		logger,
	)

	registry := adapters.NewDefaultRegistry(fetcher, logger)
	if cfg.Cache.Enabled {
		registry = adapters.WrapWithCache(registry, cache.NewMemoryCache(), cfg.Cache.TTL, logger)
		logger.Info("adapter response cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	// OpenAI is optional. Without a key the interpreter keeps its heuristic
	// parsing and matching keeps its fuzzy strategy.
	strategies := []usecase.SimilarityStrategy{usecase.NewFuzzySimilarity()}
	var interpreter *usecase.QueryInterpreter
	if cfg.OpenAI.APIKey != "" {
		ai := openai.NewClient(cfg.OpenAI.APIKey,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithModels(cfg.OpenAI.ChatModel, cfg.OpenAI.EmbeddingModel),
		)
		interpreter = usecase.NewQueryInterpreter(ai, cfg.Search.NLTimeout, logger)
		strategies = append(
			[]usecase.SimilarityStrategy{usecase.NewEmbeddingSimilarity(ai, cfg.Matching.EmbeddingCacheSize)},
			strategies...,
		)
		logger.Info("openai integration enabled",
			zap.String("chat_model", cfg.OpenAI.ChatModel),
			zap.String("embedding_model", cfg.OpenAI.EmbeddingModel))
	} else {
		interpreter = usecase.NewQueryInterpreter(nil, cfg.Search.NLTimeout, logger)
		logger.Info("openai key not set, using local query parsing and fuzzy matching only")
	}

	// Usecase layer
	coordinator := usecase.NewFanoutCoordinator(registry, usecase.FanoutConfig{
		GlobalBudget:   cfg.Search.GlobalBudget,
		AdapterTimeout: cfg.Search.AdapterTimeout,
		MaxConcurrent:  int64(cfg.Search.MaxConcurrent),
	}, logger)

	matcher := usecase.NewMatcher(usecase.MatcherConfig{
		SimilarityThreshold: cfg.Matching.SimilarityThreshold,
		Transitive:          cfg.Matching.Transitive,
	}, strategies, sourcePriority, logger)

	searchService := usecase.NewSearchService(
		interpreter,
		coordinator,
		matcher,
		usecase.NewRanker(),
		usecase.NewAssembler(usecase.AssemblerConfig{
			DefaultLimit:   cfg.Search.DefaultLimit,
			MaxLimit:       cfg.Search.MaxLimit,
			BestDealsCount: cfg.Search.BestDealsCount,
		}),
		logger,
	)

	// HTTP delivery
	handler := httpDelivery.NewHandler(searchService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
