package domain

import "errors"

const tokensPerMillion = 1e6

// CostEngine turns scenarios and price tables into cost breakdowns.
// It is pure: no I/O, no shared state, deterministic for identical
// inputs.
type CostEngine struct{}

// NewCostEngine creates the engine (DI constructor).
func NewCostEngine() *CostEngine {
	return &CostEngine{}
}

// Compute calculates the monthly cost breakdown for a scenario against
// a price table. Scenario price overrides are merged into a working
// copy scoped to this call; the shared table is never mutated. The
// returned breakdown is a fresh allocation owned by the caller.
func (e *CostEngine) Compute(scenario *Scenario, table *PriceTable) (*CostBreakdown, error) {
	if scenario == nil {
		return nil, &InvalidScenarioError{Reason: "scenario cannot be nil"}
	}
	if table == nil {
		return nil, errors.New("price table cannot be nil")
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	merged, err := table.Merged(scenario.PriceOverrides)
	if err != nil {
		return nil, err
	}

	prices, err := resolvePrices(scenario, merged)
	if err != nil {
		return nil, err
	}

	breakdown := &CostBreakdown{
		ByModel: make(map[string]float64, len(scenario.Models)),
		ByGroup: make(map[string]GroupCost, len(scenario.IntentGroups)),
		ByStep:  make(map[string]float64, len(scenario.FlowSteps)),
		Meta: BreakdownMeta{
			PricesUpdatedAt: merged.UpdatedAt,
			ModelCount:      len(merged.Models),
		},
	}
	for _, modelID := range scenario.Models {
		breakdown.ByModel[modelID] = 0
	}

	for _, group := range scenario.IntentGroups {
		runsPerMonth, freqErr := group.Frequency.RunsPerMonth(scenario.days(), group.CustomRunsPerMonth)
		if freqErr != nil {
			return nil, freqErr
		}

		runsPerPrompt := group.RunsPerPrompt
		if runsPerPrompt == 0 {
			runsPerPrompt = 1
		}

		callsPerModel := float64(group.TotalPrompts()*runsPerPrompt) * runsPerMonth
		accumulateGroup(scenario, prices, group.Name, callsPerModel, breakdown)
	}

	return breakdown, nil
}

// stepFlow carries chain state across a group's step walk: the previous
// step's output token estimate and the fan-out multiplier of the most
// recent broadcast step. The multiplier persists through fan-in steps,
// so chained fan-ins keep the call volume of the original broadcast
// instead of collapsing to a single lane.
type stepFlow struct {
	prevOutput int
	fanOut     int
}

func accumulateGroup(
	scenario *Scenario,
	prices map[string]ModelPrice,
	groupName string,
	callsPerModel float64,
	breakdown *CostBreakdown,
) {
	flow := stepFlow{prevOutput: 0, fanOut: len(scenario.Models)}
	var group GroupCost

	for _, step := range scenario.FlowSteps {
		inputTokens := stepInputTokens(step, flow)

		var stepCost, stepCalls float64

		switch step.Target.Kind {
		case TargetBroadcast:
			// Every scenario model runs the step independently;
			// iterate in declared order so accumulation stays
			// deterministic.
			for _, modelID := range scenario.Models {
				cost := perCallCost(prices[modelID], inputTokens, step.OutputTokens, step.UseCachedInput) * callsPerModel
				breakdown.ByModel[modelID] += cost
				stepCost += cost
				stepCalls += callsPerModel
			}
			flow.fanOut = len(scenario.Models)

		case TargetModel:
			// Every upstream lane's output is a separate call into the
			// one designated model; fan-in never reduces call count.
			stepCalls = float64(flow.fanOut) * callsPerModel
			stepCost = perCallCost(prices[step.Target.Model], inputTokens, step.OutputTokens, step.UseCachedInput) * stepCalls
			breakdown.ByModel[step.Target.Model] += stepCost
		}

		flow.prevOutput = step.OutputTokens

		breakdown.ByStep[step.Name] += stepCost
		breakdown.TotalCost += stepCost
		breakdown.TotalCalls += stepCalls
		breakdown.TotalInputTokens += float64(inputTokens) * stepCalls
		breakdown.TotalOutputTokens += float64(step.OutputTokens) * stepCalls
		group.Cost += stepCost
		group.Calls += stepCalls
	}

	total := breakdown.ByGroup[groupName]
	total.Cost += group.Cost
	total.Calls += group.Calls
	breakdown.ByGroup[groupName] = total
}

// stepInputTokens resolves the step's token strategy against the chain
// state. Validation has already rejected previous-output strategies on
// the first step.
func stepInputTokens(step FlowStep, flow stepFlow) int {
	switch step.Strategy {
	case StrategyFixed:
		return step.FixedInputTokens
	case StrategyFromPrevious:
		return flow.prevOutput
	case StrategyPercentOfPrevious:
		return int(float64(flow.prevOutput) * step.PercentOfPrevious)
	default:
		return 0
	}
}

func perCallCost(price ModelPrice, inputTokens, outputTokens int, useCachedInput bool) float64 {
	inputPrice := price.InputPerMillion
	if useCachedInput && price.CachedInputPerMillion != nil {
		inputPrice = *price.CachedInputPerMillion
	}

	return float64(inputTokens)/tokensPerMillion*inputPrice +
		float64(outputTokens)/tokensPerMillion*price.OutputPerMillion
}

// resolvePrices looks up every model the scenario references, so a
// missing price entry fails the computation before any cost is
// attributed.
func resolvePrices(scenario *Scenario, table *PriceTable) (map[string]ModelPrice, error) {
	prices := make(map[string]ModelPrice, len(scenario.Models))

	for _, modelID := range scenario.Models {
		price, ok := table.Lookup(modelID)
		if !ok {
			return nil, &UnknownModelError{Model: modelID}
		}
		prices[modelID] = price
	}

	for _, step := range scenario.FlowSteps {
		if step.Target.Kind != TargetModel {
			continue
		}
		price, ok := table.Lookup(step.Target.Model)
		if !ok {
			return nil, &UnknownModelError{Model: step.Target.Model}
		}
		prices[step.Target.Model] = price
	}

	return prices, nil
}
