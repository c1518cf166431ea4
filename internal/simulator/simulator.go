// Package simulator orchestrates scenario runs: price resolution,
// scenario loading, cost computation and event publication.
package simulator

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/observability"
)

// PriceResolver yields the effective price table.
type PriceResolver interface {
	Resolve(ctx context.Context, forceRefresh bool) (*domain.PriceTable, error)
}

// ScenarioLoader reads scenario definitions from disk.
type ScenarioLoader interface {
	Load(path string) (*domain.Scenario, error)
	Discover() ([]string, error)
}

// Simulator runs cost simulations (DI service).
type Simulator struct {
	resolver PriceResolver
	loader   ScenarioLoader
	engine   domain.Engine
	events   domain.EventPublisher

	mu    sync.Mutex
	table *domain.PriceTable
}

// NewSimulator creates a new simulator (DI constructor).
func NewSimulator(
	resolver PriceResolver,
	loader ScenarioLoader,
	engine domain.Engine,
	events domain.EventPublisher,
) *Simulator {
	return &Simulator{
		resolver: resolver,
		loader:   loader,
		engine:   engine,
		events:   events,
	}
}

// Prices returns the effective price table, memoized across runs in
// the same process. forceRefresh drops the memo and the resolver's
// cache freshness check.
func (s *Simulator) Prices(ctx context.Context, forceRefresh bool) (*domain.PriceTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil && !forceRefresh {
		return s.table, nil
	}

	table, err := s.resolver.Resolve(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	s.table = table
	return table, nil
}

// Run computes the breakdown for one scenario.
func (s *Simulator) Run(ctx context.Context, scenario *domain.Scenario, forceRefresh bool) (*domain.CostBreakdown, error) {
	if scenario == nil {
		return nil, errors.New("scenario cannot be nil")
	}

	ctx = observability.WithScenario(ctx, scenario.ID)
	logger := observability.FromContext(ctx)

	table, err := s.Prices(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	logger.Info("running scenario",
		zap.String("name", scenario.Name),
		zap.Int("model_count", len(scenario.Models)),
		zap.Int("intent_groups", len(scenario.IntentGroups)),
	)

	breakdown, err := s.engine.Compute(scenario, table)
	if err != nil {
		s.publish(ctx, "scenario.failed", map[string]interface{}{
			"scenario_id": scenario.ID,
			"error":       err.Error(),
		})
		return nil, err
	}

	s.publish(ctx, "scenario.completed", map[string]interface{}{
		"scenario_id":    scenario.ID,
		"total_cost_usd": breakdown.TotalCost,
		"total_calls":    breakdown.TotalCalls,
	})

	return breakdown, nil
}

// RunFile loads a scenario file and runs it.
func (s *Simulator) RunFile(ctx context.Context, path string, forceRefresh bool) (*domain.ScenarioResult, error) {
	scenario, err := s.loader.Load(path)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.Run(ctx, scenario, forceRefresh)
	if err != nil {
		return nil, err
	}

	return &domain.ScenarioResult{
		ScenarioID: scenario.ID,
		Name:       scenario.Name,
		Breakdown:  breakdown,
	}, nil
}

// RunPaths runs a batch of scenario files. One bad file never aborts
// the batch; failures travel alongside the ranked results.
func (s *Simulator) RunPaths(ctx context.Context, paths []string, forceRefresh bool) (*domain.Comparison, error) {
	logger := observability.FromContext(ctx)

	var (
		results  []domain.ScenarioResult
		failures []domain.ScenarioFailure
	)

	for _, path := range paths {
		result, err := s.RunFile(ctx, path, forceRefresh)
		if err != nil {
			logger.Warn("scenario failed",
				zap.String("path", path),
				zap.Error(err),
			)
			failures = append(failures, domain.ScenarioFailure{
				ScenarioID: path,
				Name:       path,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, *result)

		// A refreshed table is memoized after the first run.
		forceRefresh = false
	}

	return domain.NewComparison(results, failures), nil
}

// RunAll discovers every scenario in the configured directory and runs
// the batch.
func (s *Simulator) RunAll(ctx context.Context, forceRefresh bool) (*domain.Comparison, error) {
	paths, err := s.loader.Discover()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no scenario files found")
	}

	return s.RunPaths(ctx, paths, forceRefresh)
}

func (s *Simulator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, data)
}
