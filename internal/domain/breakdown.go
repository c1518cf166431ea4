package domain

import "time"

// GroupCost is the cost and expected call volume attributed to one
// intent group.
type GroupCost struct {
	Cost  float64 `json:"cost_usd"`
	Calls float64 `json:"calls"`
}

// BreakdownMeta echoes price-source metadata into the result.
type BreakdownMeta struct {
	PricesUpdatedAt time.Time `json:"prices_updated_at"`
	ModelCount      int       `json:"model_count"`
}

// CostBreakdown is the engine's result, allocated fresh per Compute and
// never mutated after return. All values keep full float precision;
// rounding to two decimals happens in the reporters only. Call and
// token counts are monthly expectations and may be fractional (weekly
// frequency yields daysPerMonth/7 runs per month).
type CostBreakdown struct {
	TotalCost         float64              `json:"total_cost_usd"`
	TotalCalls        float64              `json:"total_calls_per_month"`
	ByModel           map[string]float64   `json:"by_model"`
	ByGroup           map[string]GroupCost `json:"by_intent_group"`
	ByStep            map[string]float64   `json:"by_step"`
	TotalInputTokens  float64              `json:"total_input_tokens_per_month"`
	TotalOutputTokens float64              `json:"total_output_tokens_per_month"`
	Meta              BreakdownMeta        `json:"meta"`
}
