package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/llmspend/internal/domain"
)

const costTolerance = 1e-9

func f64(v float64) *float64 { return &v }

func testTable() *domain.PriceTable {
	return &domain.PriceTable{
		Models: map[string]domain.ModelPrice{
			"model-a": {ID: "model-a", Vendor: "alpha", InputPerMillion: 5, OutputPerMillion: 15},
			"model-b": {ID: "model-b", Vendor: "beta", InputPerMillion: 5, OutputPerMillion: 15},
			"model-c": {ID: "model-c", Vendor: "gamma", InputPerMillion: 5, OutputPerMillion: 15},
			"gpt-5-mini": {
				ID: "gpt-5-mini", Vendor: "openai",
				InputPerMillion: 0.25, OutputPerMillion: 1,
				CachedInputPerMillion: f64(0.025),
			},
		},
		UpdatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

// answerScenario is the reference shape used throughout: 3 models, one
// daily intent group of 30 intents x 3 variants, one broadcast step
// with 500 fixed input tokens and 300 output tokens.
func answerScenario() *domain.Scenario {
	return &domain.Scenario{
		ID:     "answers",
		Name:   "Answer generation",
		Models: []string{"model-a", "model-b", "model-c"},
		IntentGroups: []domain.IntentGroup{
			{
				Name:              "main",
				IntentsCount:      30,
				VariantsPerIntent: 3,
				Frequency:         domain.FreqDaily,
				RunsPerPrompt:     1,
			},
		},
		FlowSteps: []domain.FlowStep{
			{
				Name:             "answer",
				Target:           domain.Broadcast(),
				Strategy:         domain.StrategyFixed,
				FixedInputTokens: 500,
				OutputTokens:     300,
			},
		},
	}
}

func TestCostEngine_SingleBroadcastStep(t *testing.T) {
	engine := domain.NewCostEngine()

	breakdown, err := engine.Compute(answerScenario(), testTable())
	require.NoError(t, err)

	// calls_per_model = 30 intents * 3 variants * 30 days = 2700;
	// cost_per_call = 500/1e6*5 + 300/1e6*15 = 0.007.
	require.InDelta(t, 56.70, breakdown.TotalCost, costTolerance)
	require.InDelta(t, 8100, breakdown.TotalCalls, costTolerance)

	require.Len(t, breakdown.ByModel, 3)
	for _, modelID := range []string{"model-a", "model-b", "model-c"} {
		require.InDelta(t, 18.90, breakdown.ByModel[modelID], costTolerance)
	}

	require.InDelta(t, 56.70, breakdown.ByStep["answer"], costTolerance)
	require.InDelta(t, 56.70, breakdown.ByGroup["main"].Cost, costTolerance)
	require.InDelta(t, 8100, breakdown.ByGroup["main"].Calls, costTolerance)

	require.InDelta(t, 500*8100, breakdown.TotalInputTokens, costTolerance)
	require.InDelta(t, 300*8100, breakdown.TotalOutputTokens, costTolerance)

	require.Equal(t, 4, breakdown.Meta.ModelCount)
	require.Equal(t, testTable().UpdatedAt, breakdown.Meta.PricesUpdatedAt)
}

func TestCostEngine_FanInStep(t *testing.T) {
	engine := domain.NewCostEngine()

	scenario := answerScenario()
	scenario.FlowSteps = append(scenario.FlowSteps, domain.FlowStep{
		Name:         "extract",
		Target:       domain.Designated("gpt-5-mini"),
		Strategy:     domain.StrategyFromPrevious,
		OutputTokens: 100,
	})

	breakdown, err := engine.Compute(scenario, testTable())
	require.NoError(t, err)

	// Extractor processes every upstream model's output separately:
	// 3 * 2700 = 8100 calls at 300 input / 100 output tokens.
	require.InDelta(t, 1.4175, breakdown.ByStep["extract"], costTolerance)
	require.InDelta(t, 1.4175, breakdown.ByModel["gpt-5-mini"], costTolerance)
	require.InDelta(t, 56.70+1.4175, breakdown.TotalCost, costTolerance)
	require.InDelta(t, 16200, breakdown.TotalCalls, costTolerance)
}

func TestCostEngine_FanInScalesWithUpstreamModels(t *testing.T) {
	engine := domain.NewCostEngine()

	table := testTable()
	table.Models["model-d"] = domain.ModelPrice{ID: "model-d", InputPerMillion: 5, OutputPerMillion: 15}
	table.Models["model-e"] = domain.ModelPrice{ID: "model-e", InputPerMillion: 5, OutputPerMillion: 15}
	table.Models["model-f"] = domain.ModelPrice{ID: "model-f", InputPerMillion: 5, OutputPerMillion: 15}

	base := answerScenario()
	base.FlowSteps = append(base.FlowSteps, domain.FlowStep{
		Name:         "extract",
		Target:       domain.Designated("gpt-5-mini"),
		Strategy:     domain.StrategyFromPrevious,
		OutputTokens: 100,
	})

	doubled := answerScenario()
	doubled.Models = append(doubled.Models, "model-d", "model-e", "model-f")
	doubled.FlowSteps = base.FlowSteps

	baseResult, err := engine.Compute(base, table)
	require.NoError(t, err)

	doubledResult, err := engine.Compute(doubled, table)
	require.NoError(t, err)

	require.InDelta(t, 2*baseResult.ByStep["extract"], doubledResult.ByStep["extract"], costTolerance)
	require.InDelta(t, 2*baseResult.TotalCalls, doubledResult.TotalCalls, costTolerance)
}

func TestCostEngine_ChainedFanInCarriesMultiplier(t *testing.T) {
	engine := domain.NewCostEngine()

	scenario := answerScenario()
	scenario.FlowSteps = append(scenario.FlowSteps,
		domain.FlowStep{
			Name:         "extract",
			Target:       domain.Designated("gpt-5-mini"),
			Strategy:     domain.StrategyFromPrevious,
			OutputTokens: 100,
		},
		domain.FlowStep{
			Name:         "judge",
			Target:       domain.Designated("gpt-5-mini"),
			Strategy:     domain.StrategyFromPrevious,
			OutputTokens: 50,
		},
	)

	breakdown, err := engine.Compute(scenario, testTable())
	require.NoError(t, err)

	// The fan-out multiplier of the original broadcast (3 models)
	// carries through the whole fan-in chain: the judge step still sees
	// 3 * 2700 = 8100 calls, not 2700.
	judgeCost := 8100 * (100.0/1e6*0.25 + 50.0/1e6*1)
	require.InDelta(t, judgeCost, breakdown.ByStep["judge"], costTolerance)
	require.InDelta(t, 8100*3, breakdown.TotalCalls, costTolerance)
}

func TestCostEngine_PercentOfPreviousOutput(t *testing.T) {
	engine := domain.NewCostEngine()

	scenario := answerScenario()
	scenario.FlowSteps = append(scenario.FlowSteps, domain.FlowStep{
		Name:              "summarize",
		Target:            domain.Designated("gpt-5-mini"),
		Strategy:          domain.StrategyPercentOfPrevious,
		PercentOfPrevious: 0.5,
		OutputTokens:      40,
	})

	breakdown, err := engine.Compute(scenario, testTable())
	require.NoError(t, err)

	// 50% of the previous step's 300 output tokens = 150 input tokens.
	stepCost := 8100 * (150.0/1e6*0.25 + 40.0/1e6*1)
	require.InDelta(t, stepCost, breakdown.ByStep["summarize"], costTolerance)
}

func TestCostEngine_FrequencyMultipliers(t *testing.T) {
	engine := domain.NewCostEngine()

	tests := []struct {
		frequency     domain.Frequency
		expectedCalls float64
	}{
		{domain.FreqHourly, 720},
		{domain.FreqTwoHourly, 360},
		{domain.FreqFourHourly, 180},
		{domain.FreqDaily, 30},
		{domain.FreqWeekly, 30.0 / 7},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			scenario := answerScenario()
			scenario.Models = []string{"model-a"}
			scenario.IntentGroups = []domain.IntentGroup{
				{Name: "g", IntentsCount: 1, VariantsPerIntent: 1, Frequency: tt.frequency},
			}

			breakdown, err := engine.Compute(scenario, testTable())
			require.NoError(t, err)
			require.InDelta(t, tt.expectedCalls, breakdown.TotalCalls, 1e-6)
		})
	}
}

func TestCostEngine_CustomFrequency(t *testing.T) {
	engine := domain.NewCostEngine()

	scenario := answerScenario()
	scenario.Models = []string{"model-a"}
	scenario.IntentGroups = []domain.IntentGroup{
		{Name: "g", IntentsCount: 2, VariantsPerIntent: 1, Frequency: domain.FreqCustom, CustomRunsPerMonth: 11},
	}

	breakdown, err := engine.Compute(scenario, testTable())
	require.NoError(t, err)
	require.InDelta(t, 22, breakdown.TotalCalls, costTolerance)
}

func TestCostEngine_RunsPerPromptMultiplies(t *testing.T) {
	engine := domain.NewCostEngine()

	scenario := answerScenario()
	scenario.IntentGroups[0].RunsPerPrompt = 4

	breakdown, err := engine.Compute(scenario, testTable())
	require.NoError(t, err)
	require.InDelta(t, 4*56.70, breakdown.TotalCost, costTolerance)
	require.InDelta(t, 4*8100, breakdown.TotalCalls, costTolerance)
}

func TestCostEngine_PriceOverridesAreScenarioScoped(t *testing.T) {
	engine := domain.NewCostEngine()
	table := testTable()

	overridden := answerScenario()
	overridden.PriceOverrides = map[string]domain.PriceOverride{
		"model-a": {InputPerMillion: f64(50), OutputPerMillion: f64(150)},
	}

	first, err := engine.Compute(overridden, table)
	require.NoError(t, err)
	require.InDelta(t, 2700*(500.0/1e6*50+300.0/1e6*150), first.ByModel["model-a"], costTolerance)

	// A second scenario without overrides must see the base prices:
	// nothing leaks through the shared table.
	second, err := engine.Compute(answerScenario(), table)
	require.NoError(t, err)
	require.InDelta(t, 18.90, second.ByModel["model-a"], costTolerance)
	require.InDelta(t, 5, table.Models["model-a"].InputPerMillion, costTolerance)
}

func TestCostEngine_PartialOverrideInheritsBase(t *testing.T) {
	engine := domain.NewCostEngine()

	scenario := answerScenario()
	scenario.Models = []string{"model-a"}
	scenario.PriceOverrides = map[string]domain.PriceOverride{
		"model-a": {InputPerMillion: f64(10)},
	}

	breakdown, err := engine.Compute(scenario, testTable())
	require.NoError(t, err)

	// Output price inherits the base $15.
	require.InDelta(t, 2700*(500.0/1e6*10+300.0/1e6*15), breakdown.TotalCost, costTolerance)
}

func TestCostEngine_CachedInputPricing(t *testing.T) {
	engine := domain.NewCostEngine()

	scenario := answerScenario()
	scenario.Models = []string{"gpt-5-mini"}
	scenario.FlowSteps[0].UseCachedInput = true

	breakdown, err := engine.Compute(scenario, testTable())
	require.NoError(t, err)

	// Cached input price 0.025 replaces the regular 0.25.
	require.InDelta(t, 2700*(500.0/1e6*0.025+300.0/1e6*1), breakdown.TotalCost, costTolerance)
}

func TestCostEngine_UnknownModel(t *testing.T) {
	engine := domain.NewCostEngine()

	tests := []struct {
		name   string
		mutate func(*domain.Scenario)
	}{
		{
			name:   "in scenario models",
			mutate: func(s *domain.Scenario) { s.Models = append(s.Models, "missing-model") },
		},
		{
			name: "in flow step target",
			mutate: func(s *domain.Scenario) {
				s.FlowSteps = append(s.FlowSteps, domain.FlowStep{
					Name:         "extract",
					Target:       domain.Designated("missing-model"),
					Strategy:     domain.StrategyFromPrevious,
					OutputTokens: 10,
				})
			},
		},
		{
			name: "in price overrides",
			mutate: func(s *domain.Scenario) {
				s.PriceOverrides = map[string]domain.PriceOverride{
					"missing-model": {InputPerMillion: f64(1)},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := answerScenario()
			tt.mutate(scenario)

			breakdown, err := engine.Compute(scenario, testTable())
			require.Nil(t, breakdown)

			var unknownErr *domain.UnknownModelError
			require.ErrorAs(t, err, &unknownErr)
			require.Equal(t, "missing-model", unknownErr.Model)
		})
	}
}

func TestCostEngine_InvalidScenario(t *testing.T) {
	engine := domain.NewCostEngine()

	tests := []struct {
		name   string
		mutate func(*domain.Scenario)
	}{
		{
			name:   "empty models",
			mutate: func(s *domain.Scenario) { s.Models = nil },
		},
		{
			name:   "no flow steps",
			mutate: func(s *domain.Scenario) { s.FlowSteps = nil },
		},
		{
			name: "from_previous_output on first step",
			mutate: func(s *domain.Scenario) {
				s.FlowSteps[0].Strategy = domain.StrategyFromPrevious
			},
		},
		{
			name: "percent_of_previous_output on first step",
			mutate: func(s *domain.Scenario) {
				s.FlowSteps[0].Strategy = domain.StrategyPercentOfPrevious
				s.FlowSteps[0].PercentOfPrevious = 0.5
			},
		},
		{
			name: "percent out of range",
			mutate: func(s *domain.Scenario) {
				s.FlowSteps = append(s.FlowSteps, domain.FlowStep{
					Name:              "summarize",
					Target:            domain.Designated("gpt-5-mini"),
					Strategy:          domain.StrategyPercentOfPrevious,
					PercentOfPrevious: 1.5,
					OutputTokens:      10,
				})
			},
		},
		{
			name:   "non-positive intents_count",
			mutate: func(s *domain.Scenario) { s.IntentGroups[0].IntentsCount = 0 },
		},
		{
			name:   "non-positive variants_per_intent",
			mutate: func(s *domain.Scenario) { s.IntentGroups[0].VariantsPerIntent = -1 },
		},
		{
			name:   "unrecognized frequency",
			mutate: func(s *domain.Scenario) { s.IntentGroups[0].Frequency = "fortnightly" },
		},
		{
			name: "custom frequency without custom_runs_per_month",
			mutate: func(s *domain.Scenario) {
				s.IntentGroups[0].Frequency = domain.FreqCustom
				s.IntentGroups[0].CustomRunsPerMonth = 0
			},
		},
		{
			name:   "unrecognized token strategy",
			mutate: func(s *domain.Scenario) { s.FlowSteps[0].Strategy = "guesswork" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := answerScenario()
			tt.mutate(scenario)

			breakdown, err := engine.Compute(scenario, testTable())
			require.Nil(t, breakdown)

			var invalidErr *domain.InvalidScenarioError
			require.ErrorAs(t, err, &invalidErr)
		})
	}
}

func TestCostEngine_Idempotent(t *testing.T) {
	engine := domain.NewCostEngine()
	table := testTable()

	scenario := answerScenario()
	scenario.FlowSteps = append(scenario.FlowSteps, domain.FlowStep{
		Name:         "extract",
		Target:       domain.Designated("gpt-5-mini"),
		Strategy:     domain.StrategyFromPrevious,
		OutputTokens: 100,
	})

	first, err := engine.Compute(scenario, table)
	require.NoError(t, err)

	second, err := engine.Compute(scenario, table)
	require.NoError(t, err)

	require.Equal(t, first, second)
}
