package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/llmspend/internal/domain"
)

func TestFrequency_RunsPerMonth(t *testing.T) {
	tests := []struct {
		frequency domain.Frequency
		expected  float64
	}{
		{domain.FreqHourly, 720},
		{domain.FreqTwoHourly, 360},
		{domain.FreqFourHourly, 180},
		{domain.FreqDaily, 30},
		{domain.FreqWeekly, 30.0 / 7},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			runs, err := tt.frequency.RunsPerMonth(domain.DefaultDaysPerMonth, 0)
			require.NoError(t, err)
			require.InDelta(t, tt.expected, runs, 1e-9)
		})
	}
}

func TestFrequency_RunsPerMonth_CustomDays(t *testing.T) {
	runs, err := domain.FreqHourly.RunsPerMonth(28, 0)
	require.NoError(t, err)
	require.InDelta(t, 24*28, runs, 1e-9)
}

func TestFrequency_RunsPerMonth_Custom(t *testing.T) {
	runs, err := domain.FreqCustom.RunsPerMonth(domain.DefaultDaysPerMonth, 17)
	require.NoError(t, err)
	require.InDelta(t, 17, runs, 1e-9)

	_, err = domain.FreqCustom.RunsPerMonth(domain.DefaultDaysPerMonth, 0)
	var invalidErr *domain.InvalidScenarioError
	require.ErrorAs(t, err, &invalidErr)
}

func TestStepTarget_JSON(t *testing.T) {
	tests := []struct {
		name     string
		wire     string
		expected domain.StepTarget
	}{
		{"broadcast sentinel", `"current"`, domain.Broadcast()},
		{"designated model", `"gpt-5-mini"`, domain.Designated("gpt-5-mini")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target domain.StepTarget
			require.NoError(t, json.Unmarshal([]byte(tt.wire), &target))
			require.Equal(t, tt.expected, target)

			encoded, err := json.Marshal(target)
			require.NoError(t, err)
			require.JSONEq(t, tt.wire, string(encoded))
		})
	}
}

func TestStepTarget_UnmarshalRejectsNonString(t *testing.T) {
	var target domain.StepTarget
	require.Error(t, json.Unmarshal([]byte(`42`), &target))
}

func TestScenario_UnmarshalWireFormat(t *testing.T) {
	raw := `{
		"name": "Answer generation",
		"models": ["model-a", "model-b"],
		"intent_groups": [
			{"name": "main", "intents_count": 30, "variants_per_intent": 3, "frequency": "daily"}
		],
		"flow_steps": [
			{"name": "answer", "uses_model": "current", "token_strategy": "fixed", "fixed_input_tokens": 500, "output_tokens": 300},
			{"name": "extract", "uses_model": "gpt-5-mini", "token_strategy": "from_previous_output", "output_tokens": 100}
		],
		"price_overrides": {
			"model-a": {"input_per_million": 2.5}
		}
	}`

	var scenario domain.Scenario
	require.NoError(t, json.Unmarshal([]byte(raw), &scenario))
	require.NoError(t, scenario.Validate())

	require.Equal(t, "Answer generation", scenario.Name)
	require.Equal(t, []string{"model-a", "model-b"}, scenario.Models)
	require.Equal(t, domain.Broadcast(), scenario.FlowSteps[0].Target)
	require.Equal(t, domain.Designated("gpt-5-mini"), scenario.FlowSteps[1].Target)
	require.Equal(t, domain.StrategyFromPrevious, scenario.FlowSteps[1].Strategy)

	override := scenario.PriceOverrides["model-a"]
	require.NotNil(t, override.InputPerMillion)
	require.InDelta(t, 2.5, *override.InputPerMillion, 1e-9)
	require.Nil(t, override.OutputPerMillion)
}

func TestIntentGroup_TotalPrompts(t *testing.T) {
	group := domain.IntentGroup{IntentsCount: 30, VariantsPerIntent: 3}
	require.Equal(t, 90, group.TotalPrompts())
}

func TestScenario_ValidateAcceptsZeroIntentGroups(t *testing.T) {
	scenario := &domain.Scenario{
		ID:     "empty-volume",
		Models: []string{"model-a"},
		FlowSteps: []domain.FlowStep{
			{Name: "answer", Target: domain.Broadcast(), Strategy: domain.StrategyFixed, FixedInputTokens: 10, OutputTokens: 10},
		},
	}
	require.NoError(t, scenario.Validate())
}
