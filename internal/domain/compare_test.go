package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/llmspend/internal/domain"
)

func TestNewComparison_RanksByDescendingCost(t *testing.T) {
	results := []domain.ScenarioResult{
		{ScenarioID: "cheap", Breakdown: &domain.CostBreakdown{TotalCost: 1.25}},
		{ScenarioID: "pricey", Breakdown: &domain.CostBreakdown{TotalCost: 90}},
		{ScenarioID: "middle", Breakdown: &domain.CostBreakdown{TotalCost: 56.70}},
	}
	failures := []domain.ScenarioFailure{
		{ScenarioID: "broken", Error: "invalid scenario: models must not be empty"},
	}

	comparison := domain.NewComparison(results, failures)

	require.Equal(t, "pricey", comparison.Results[0].ScenarioID)
	require.Equal(t, "middle", comparison.Results[1].ScenarioID)
	require.Equal(t, "cheap", comparison.Results[2].ScenarioID)
	require.Len(t, comparison.Failures, 1)

	// The caller's slice keeps its order.
	require.Equal(t, "cheap", results[0].ScenarioID)
}
