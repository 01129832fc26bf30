package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/powersearch/backend/internal/domain"
)

// SearchService orchestrates the full pipeline: validate, interpret, fan
// out, match, rank, assemble.
type SearchService struct {
	interpreter *QueryInterpreter
	coordinator *FanoutCoordinator
	matcher     *Matcher
	ranker      *Ranker
	assembler   *Assembler
	logger      *zap.Logger
}

// NewSearchService wires the pipeline stages together.
func NewSearchService(
	interpreter *QueryInterpreter,
	coordinator *FanoutCoordinator,
	matcher *Matcher,
	ranker *Ranker,
	assembler *Assembler,
	logger *zap.Logger,
) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		interpreter: interpreter,
		coordinator: coordinator,
		matcher:     matcher,
		ranker:      ranker,
		assembler:   assembler,
		logger:      logger,
	}
}

// Search executes one search invocation end to end. Validation failures
// return an error before any retrieval work; retrieval-stage total failure
// is reported inside the response with success=false so it stays
// distinguishable from zero matches.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()

	// Zero page/limit mean "unset" for JSON callers and take defaults;
	// explicitly negative values are rejected.
	if req.Page == 0 {
		req.Page = 1
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if req.Page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", domain.ErrInvalidRequest)
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be > 0", domain.ErrInvalidRequest)
	}
	if !domain.ValidSortKey(req.SortBy) {
		return nil, fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidRequest, req.SortBy)
	}
	if req.Region == "" {
		req.Region = "global"
	}

	intent := s.interpreter.Interpret(ctx, req.Query, req.NaturalLanguage && req.UseOpenAI)

	resp := &domain.SearchResponse{
		Query:          req.Query,
		ProcessedQuery: intent.Query,
		Page:           req.Page,
		Limit:          req.Limit,
		Products:       []domain.MergedProduct{},
		BestDeals:      []domain.MergedProduct{},
	}

	fanout, err := s.coordinator.Search(ctx, intent, req.Region)
	if err != nil {
		if errors.Is(err, domain.ErrNoSourcesAvailable) {
			// The one user-visible failure mode from the retrieval stage.
			resp.Success = false
			resp.Error = fmt.Sprintf("no sources responded for region %q", req.Region)
			resp.ExecutionTime = secondsSince(start)
			s.logger.Warn("total source failure",
				zap.String("query", req.Query),
				zap.String("region", req.Region),
				zap.Error(err))
			return resp, nil
		}
		return nil, err
	}
	resp.Sources = fanout.Sources

	products := s.matcher.Match(ctx, fanout.Listings, req.AdvancedMatching)
	s.ranker.ScoreAll(products, intent)

	filtered, dropped := s.assembler.Filter(products, req.Filters, intent)
	resp.DroppedEntities = dropped

	s.ranker.Sort(filtered, req.SortBy)

	resp.Facets = s.ranker.Facets(filtered)
	resp.TotalResults = len(filtered)
	resp.BestDeals = s.assembler.BestDeals(filtered)

	pageSlice, page, limit := s.assembler.Page(filtered, req.Page, req.Limit)
	resp.Products = pageSlice
	resp.Page = page
	resp.Limit = limit

	resp.Success = true
	resp.ExecutionTime = secondsSince(start)

	s.logger.Info("search complete",
		zap.String("query", req.Query),
		zap.String("region", req.Region),
		zap.Int("raw_listings", len(fanout.Listings)),
		zap.Int("merged", len(products)),
		zap.Int("total_results", resp.TotalResults),
		zap.Float64("execution_time", resp.ExecutionTime))

	return resp, nil
}

func secondsSince(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds()) / 1000.0
}

// supportedRegions is the static region list.
var supportedRegions = []domain.Region{
	{Code: "global", Name: "Global"},
	{Code: "us", Name: "United States"},
	{Code: "eu", Name: "Europe"},
	{Code: "uk", Name: "United Kingdom"},
	{Code: "de", Name: "Germany"},
	{Code: "fr", Name: "France"},
	{Code: "jp", Name: "Japan"},
	{Code: "gr", Name: "Greece"},
	{Code: "cn", Name: "China"},
	{Code: "au", Name: "Australia"},
	{Code: "in", Name: "India"},
	{Code: "kr", Name: "South Korea"},
	{Code: "br", Name: "Brazil"},
}

// Regions returns the supported region list.
func (s *SearchService) Regions() []domain.Region {
	regions := make([]domain.Region, len(supportedRegions))
	copy(regions, supportedRegions)
	return regions
}

// StoreLister exposes the registry-derived store metadata.
type StoreLister interface {
	Stores() []domain.Store
}

// Stores returns the store metadata derived from the adapter registry.
func (s *SearchService) Stores() []domain.Store {
	if lister, ok := s.coordinator.registry.(StoreLister); ok {
		return lister.Stores()
	}
	return nil
}
