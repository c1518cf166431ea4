package domain

import "time"

// ModelPrice is the published pricing for a single model, in USD per
// million tokens. Immutable once loaded.
type ModelPrice struct {
	ID                    string   `json:"id"`
	Vendor                string   `json:"vendor,omitempty"`
	Name                  string   `json:"name,omitempty"`
	InputPerMillion       float64  `json:"input_per_million"`
	OutputPerMillion      float64  `json:"output_per_million"`
	CachedInputPerMillion *float64 `json:"cached_input_per_million,omitempty"`
}

// PriceOverride replaces individual price fields of one model for a
// single scenario. Nil fields inherit from the base price.
type PriceOverride struct {
	InputPerMillion       *float64 `json:"input_per_million,omitempty"`
	OutputPerMillion      *float64 `json:"output_per_million,omitempty"`
	CachedInputPerMillion *float64 `json:"cached_input_per_million,omitempty"`
}

// PriceTable maps model ids to their prices. UpdatedAt is the source
// timestamp for the table as a whole.
type PriceTable struct {
	Models    map[string]ModelPrice `json:"models"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Lookup returns the price entry for a model id.
func (t *PriceTable) Lookup(modelID string) (ModelPrice, bool) {
	price, ok := t.Models[modelID]
	return price, ok
}

// Merged returns a table with per-scenario overrides applied on top of
// the receiver. The receiver is never mutated; with no overrides it is
// returned as-is. Overriding a model absent from the table is an
// UnknownModelError.
func (t *PriceTable) Merged(overrides map[string]PriceOverride) (*PriceTable, error) {
	if len(overrides) == 0 {
		return t, nil
	}

	models := make(map[string]ModelPrice, len(t.Models))
	for id, price := range t.Models {
		models[id] = price
	}

	for id, override := range overrides {
		base, ok := models[id]
		if !ok {
			return nil, &UnknownModelError{Model: id}
		}
		if override.InputPerMillion != nil {
			base.InputPerMillion = *override.InputPerMillion
		}
		if override.OutputPerMillion != nil {
			base.OutputPerMillion = *override.OutputPerMillion
		}
		if override.CachedInputPerMillion != nil {
			base.CachedInputPerMillion = override.CachedInputPerMillion
		}
		models[id] = base
	}

	return &PriceTable{Models: models, UpdatedAt: t.UpdatedAt}, nil
}
