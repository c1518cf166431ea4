package domain

import "fmt"

// UnknownModelError reports a model id referenced by a scenario that has
// no entry in the override-merged price table.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q: no price entry", e.Model)
}

// InvalidScenarioError reports a structurally invalid scenario: a bad
// chaining reference, an out-of-range percentage, non-positive counts,
// or an unrecognized enum value.
type InvalidScenarioError struct {
	Reason string
}

func (e *InvalidScenarioError) Error() string {
	return "invalid scenario: " + e.Reason
}

func invalidScenariof(format string, args ...interface{}) *InvalidScenarioError {
	return &InvalidScenarioError{Reason: fmt.Sprintf(format, args...)}
}
