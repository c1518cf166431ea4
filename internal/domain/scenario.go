package domain

import (
	"encoding/json"
	"fmt"
)

// DefaultDaysPerMonth is the convention used to expand frequencies into
// runs per month.
const DefaultDaysPerMonth = 30

// CurrentModel is the wire sentinel meaning "every scenario model runs
// this step".
const CurrentModel = "current"

// Frequency is how often each prompt variant is executed.
type Frequency string

const (
	FreqHourly     Frequency = "hourly"
	FreqTwoHourly  Frequency = "2_hourly"
	FreqFourHourly Frequency = "4_hourly"
	FreqDaily      Frequency = "daily"
	FreqWeekly     Frequency = "weekly"
	FreqCustom     Frequency = "custom"
)

// RunsPerMonth expands the frequency into expected runs per month.
// Weekly months are fractional (daysPerMonth/7) so that volume is not
// rounded away before accumulation.
func (f Frequency) RunsPerMonth(daysPerMonth, customRunsPerMonth int) (float64, error) {
	days := float64(daysPerMonth)
	switch f {
	case FreqHourly:
		return 24 * days, nil
	case FreqTwoHourly:
		return 12 * days, nil
	case FreqFourHourly:
		return 6 * days, nil
	case FreqDaily:
		return days, nil
	case FreqWeekly:
		return days / 7, nil
	case FreqCustom:
		if customRunsPerMonth <= 0 {
			return 0, invalidScenariof("custom frequency requires a positive custom_runs_per_month")
		}
		return float64(customRunsPerMonth), nil
	default:
		return 0, invalidScenariof("unrecognized frequency %q", string(f))
	}
}

// StepTargetKind discriminates the two ways a flow step maps onto models.
type StepTargetKind int

const (
	// TargetBroadcast fans the step out: every scenario model executes
	// it independently.
	TargetBroadcast StepTargetKind = iota

	// TargetModel fans in: one designated model processes the output of
	// every upstream model.
	TargetModel
)

// StepTarget is a tagged union over the "uses_model" field: either the
// "current" sentinel (broadcast, no payload) or a designated model id.
type StepTarget struct {
	Kind  StepTargetKind
	Model string
}

// Broadcast returns the broadcast target.
func Broadcast() StepTarget { return StepTarget{Kind: TargetBroadcast, Model: ""} }

// Designated returns a target naming one specific model.
func Designated(modelID string) StepTarget {
	return StepTarget{Kind: TargetModel, Model: modelID}
}

// UnmarshalJSON decodes the "current"-or-model-id wire form.
func (t *StepTarget) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("uses_model must be a string: %w", err)
	}

	if raw == CurrentModel {
		*t = Broadcast()
		return nil
	}
	*t = Designated(raw)
	return nil
}

// MarshalJSON encodes the wire form.
func (t StepTarget) MarshalJSON() ([]byte, error) {
	if t.Kind == TargetBroadcast {
		return json.Marshal(CurrentModel)
	}
	return json.Marshal(t.Model)
}

// TokenStrategy selects how a step's input token count is derived.
type TokenStrategy string

const (
	StrategyFixed             TokenStrategy = "fixed"
	StrategyFromPrevious      TokenStrategy = "from_previous_output"
	StrategyPercentOfPrevious TokenStrategy = "percent_of_previous_output"
)

// FlowStep is one stage of a processing pipeline. Steps form a strict
// linear chain; a step may reference only its immediate predecessor's
// output.
type FlowStep struct {
	Name              string        `json:"name"`
	Target            StepTarget    `json:"uses_model"`
	Strategy          TokenStrategy `json:"token_strategy"`
	FixedInputTokens  int           `json:"fixed_input_tokens,omitempty"`
	PercentOfPrevious float64       `json:"percent_of_previous,omitempty"`
	OutputTokens      int           `json:"output_tokens"`
	UseCachedInput    bool          `json:"use_cached_input,omitempty"`
}

// IntentGroup is a block of prompts sharing volume and frequency.
type IntentGroup struct {
	Name               string    `json:"name"`
	IntentsCount       int       `json:"intents_count"`
	VariantsPerIntent  int       `json:"variants_per_intent"`
	Frequency          Frequency `json:"frequency"`
	RunsPerPrompt      int       `json:"runs_per_prompt,omitempty"`
	CustomRunsPerMonth int       `json:"custom_runs_per_month,omitempty"`
}

// TotalPrompts is the number of distinct prompts the group produces.
func (g IntentGroup) TotalPrompts() int {
	return g.IntentsCount * g.VariantsPerIntent
}

// Scenario is one cost-modeling unit: which models answer which volume
// of prompts through which pipeline.
type Scenario struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Models         []string                 `json:"models"`
	IntentGroups   []IntentGroup            `json:"intent_groups"`
	FlowSteps      []FlowStep               `json:"flow_steps"`
	PriceOverrides map[string]PriceOverride `json:"price_overrides,omitempty"`
	DaysPerMonth   int                      `json:"days_per_month,omitempty"`
}

func (s *Scenario) days() int {
	if s.DaysPerMonth == 0 {
		return DefaultDaysPerMonth
	}
	return s.DaysPerMonth
}

// Validate checks the scenario's structure. Everything checkable
// without a price table lives here; model resolution is Compute's job.
func (s *Scenario) Validate() error {
	if len(s.Models) == 0 {
		return invalidScenariof("models must not be empty")
	}
	if len(s.FlowSteps) == 0 {
		return invalidScenariof("flow_steps must contain at least one step")
	}
	if s.DaysPerMonth < 0 {
		return invalidScenariof("days_per_month must be positive")
	}

	for i, group := range s.IntentGroups {
		if group.IntentsCount <= 0 {
			return invalidScenariof("intent group %d (%s): intents_count must be positive", i, group.Name)
		}
		if group.VariantsPerIntent <= 0 {
			return invalidScenariof("intent group %d (%s): variants_per_intent must be positive", i, group.Name)
		}
		if group.RunsPerPrompt < 0 {
			return invalidScenariof("intent group %d (%s): runs_per_prompt must be at least 1", i, group.Name)
		}
		if _, err := group.Frequency.RunsPerMonth(s.days(), group.CustomRunsPerMonth); err != nil {
			return err
		}
	}

	for i, step := range s.FlowSteps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(i int, step FlowStep) error {
	if step.Name == "" {
		return invalidScenariof("flow step %d: name is required", i)
	}
	if step.OutputTokens < 0 {
		return invalidScenariof("flow step %d (%s): output_tokens must not be negative", i, step.Name)
	}
	if step.Target.Kind == TargetModel && step.Target.Model == "" {
		return invalidScenariof("flow step %d (%s): uses_model must not be empty", i, step.Name)
	}

	switch step.Strategy {
	case StrategyFixed:
		if step.FixedInputTokens < 0 {
			return invalidScenariof("flow step %d (%s): fixed_input_tokens must not be negative", i, step.Name)
		}
	case StrategyFromPrevious:
		if i == 0 {
			return invalidScenariof("flow step %s: %s has no preceding step", step.Name, StrategyFromPrevious)
		}
	case StrategyPercentOfPrevious:
		if i == 0 {
			return invalidScenariof("flow step %s: %s has no preceding step", step.Name, StrategyPercentOfPrevious)
		}
		if step.PercentOfPrevious < 0 || step.PercentOfPrevious > 1 {
			return invalidScenariof("flow step %d (%s): percent_of_previous must be within [0, 1]", i, step.Name)
		}
	default:
		return invalidScenariof("flow step %d (%s): unrecognized token_strategy %q", i, step.Name, string(step.Strategy))
	}

	return nil
}
