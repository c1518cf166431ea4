package domain

import "sort"

// ScenarioResult pairs a scenario with its computed breakdown.
type ScenarioResult struct {
	ScenarioID string         `json:"scenario_id"`
	Name       string         `json:"name"`
	Breakdown  *CostBreakdown `json:"breakdown"`
}

// ScenarioFailure records a scenario whose computation was rejected.
type ScenarioFailure struct {
	ScenarioID string `json:"scenario_id"`
	Name       string `json:"name"`
	Error      string `json:"error"`
}

// Comparison is a multi-scenario view ranked by total monthly cost.
// Failed scenarios are carried alongside so one bad definition never
// hides the rest of the batch.
type Comparison struct {
	Results  []ScenarioResult  `json:"results"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// NewComparison ranks results by descending total cost. Each result
// keeps its own full breakdown.
func NewComparison(results []ScenarioResult, failures []ScenarioFailure) *Comparison {
	ranked := make([]ScenarioResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Breakdown.TotalCost > ranked[j].Breakdown.TotalCost
	})

	return &Comparison{Results: ranked, Failures: failures}
}
