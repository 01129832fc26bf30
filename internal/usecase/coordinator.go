package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/powersearch/backend/internal/domain"
)

// AdapterRegistry selects the adapters valid for a region. The coordinator is
// agnostic to how many or which adapters exist.
type AdapterRegistry interface {
	ForRegion(region string) []domain.SiteAdapter
}

// FanoutConfig bounds one fan-out run.
type FanoutConfig struct {
	GlobalBudget   time.Duration // wall-clock ceiling across all adapters
	AdapterTimeout time.Duration // per-adapter ceiling
	MaxConcurrent  int64         // concurrently running adapter calls
}

// FanoutResult carries the union of listings plus per-source diagnostics.
type FanoutResult struct {
	Listings []domain.RawListing
	Sources  []domain.SourceStatus
}

// Succeeded returns the number of sources that completed without error.
func (r *FanoutResult) Succeeded() int {
	n := 0
	for _, s := range r.Sources {
		if s.OK {
			n++
		}
	}
	return n
}

// FanoutCoordinator dispatches an interpreted query to every adapter
// registered for a region. Each adapter call runs in isolation: it writes
// into its own result slot, is individually time-bounded, and a failure or
// timeout contributes zero listings without affecting the rest. The
// coordinator returns once all adapters settle or the global budget elapses;
// results arriving after the budget are discarded, not merged.
type FanoutCoordinator struct {
	registry AdapterRegistry
	cfg      FanoutConfig
	logger   *zap.Logger
}

// NewFanoutCoordinator creates a coordinator with the given bounds.
func NewFanoutCoordinator(registry AdapterRegistry, cfg FanoutConfig, logger *zap.Logger) *FanoutCoordinator {
	if cfg.GlobalBudget <= 0 {
		cfg.GlobalBudget = 45 * time.Second
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 20 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanoutCoordinator{registry: registry, cfg: cfg, logger: logger}
}

// adapterSlot is the isolated per-call result object. Slots are merged only
// after their goroutine has signalled completion, so no slot is ever read
// and written concurrently.
type adapterSlot struct {
	source   string
	listings []domain.RawListing
	err      error
	elapsed  time.Duration
	done     chan struct{}
}

// Search fans the intent out to all adapters for the region. It returns
// domain.ErrNoSourcesAvailable when no adapter exists for the region or when
// every adapter failed; partial failure is not an error.
func (c *FanoutCoordinator) Search(ctx context.Context, intent domain.SearchIntent, region string) (*FanoutResult, error) {
	adapters := c.registry.ForRegion(region)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("%w: no adapters registered for region %q", domain.ErrNoSourcesAvailable, region)
	}

	budgetCtx, cancel := context.WithTimeout(ctx, c.cfg.GlobalBudget)
	defer cancel()

	sem := semaphore.NewWeighted(c.cfg.MaxConcurrent)
	slots := make([]*adapterSlot, len(adapters))

	for i, adapter := range adapters {
		slot := &adapterSlot{source: adapter.Source(), done: make(chan struct{})}
		slots[i] = slot

		go func(a domain.SiteAdapter, s *adapterSlot) {
			defer close(s.done)
			start := time.Now()

			if err := sem.Acquire(budgetCtx, 1); err != nil {
				s.err = fmt.Errorf("%w: %s: budget exhausted before start", domain.ErrAdapterFailed, a.Source())
				s.elapsed = time.Since(start)
				return
			}
			defer sem.Release(1)

			callCtx, callCancel := context.WithTimeout(budgetCtx, c.cfg.AdapterTimeout)
			defer callCancel()

			listings, err := a.Search(callCtx, intent, region)
			s.elapsed = time.Since(start)
			if err != nil {
				s.err = err
				return
			}
			s.listings = listings
		}(adapter, slot)
	}

	result := &FanoutResult{}
	for _, slot := range slots {
		select {
		case <-slot.done:
		case <-budgetCtx.Done():
			// Global budget elapsed: abandon still-pending adapters. Their
			// goroutines unwind on their own; whatever they eventually
			// produce stays in the slot and is never merged.
			result.Sources = append(result.Sources, domain.SourceStatus{
				Source:    slot.source,
				OK:        false,
				Error:     "abandoned: global search budget exceeded",
				ElapsedMS: c.cfg.GlobalBudget.Milliseconds(),
			})
			continue
		}

		status := domain.SourceStatus{
			Source:    slot.source,
			ElapsedMS: slot.elapsed.Milliseconds(),
		}
		if slot.err != nil {
			status.Error = slot.err.Error()
			c.logger.Warn("adapter failed",
				zap.String("source", slot.source),
				zap.Duration("elapsed", slot.elapsed),
				zap.Error(slot.err))
		} else {
			status.OK = true
			status.Listings = len(slot.listings)
			result.Listings = append(result.Listings, slot.listings...)
		}
		result.Sources = append(result.Sources, status)
	}

	sort.Slice(result.Sources, func(i, j int) bool {
		return result.Sources[i].Source < result.Sources[j].Source
	})

	if result.Succeeded() == 0 {
		return nil, fmt.Errorf("%w: all %d sources for region %q failed",
			domain.ErrNoSourcesAvailable, len(adapters), region)
	}

	c.logger.Info("fan-out complete",
		zap.String("region", region),
		zap.Int("adapters", len(adapters)),
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("listings", len(result.Listings)))

	return result, nil
}
