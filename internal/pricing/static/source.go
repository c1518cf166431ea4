// Package static provides a built-in price table for offline use and
// tests. It implements the domain.PriceSource interface without making
// external calls, so scenarios stay computable when the feed is
// unreachable and no cache exists yet.
package static

import (
	"context"
	"time"

	"github.com/davidbz/llmspend/internal/domain"
)

// Source serves a fixed snapshot of well-known model prices.
type Source struct {
	table *domain.PriceTable
}

// NewSource creates a new static price source.
// No configuration is required as this source operates entirely in-memory.
func NewSource() *Source {
	return &Source{table: snapshotTable()}
}

// Fetch returns the built-in price table.
func (s *Source) Fetch(_ context.Context) (*domain.PriceTable, error) {
	// Copy so callers can never mutate the shared snapshot.
	models := make(map[string]domain.ModelPrice, len(s.table.Models))
	for id, price := range s.table.Models {
		models[id] = price
	}
	return &domain.PriceTable{Models: models, UpdatedAt: s.table.UpdatedAt}, nil
}

func cached(v float64) *float64 { return &v }

// snapshotTable is a hand-maintained snapshot of the public feed.
// Prices are USD per million tokens.
func snapshotTable() *domain.PriceTable {
	models := []domain.ModelPrice{
		{ID: "gpt-5", Vendor: "openai", Name: "GPT-5", InputPerMillion: 1.25, OutputPerMillion: 10, CachedInputPerMillion: cached(0.125)},
		{ID: "gpt-5-mini", Vendor: "openai", Name: "GPT-5 Mini", InputPerMillion: 0.25, OutputPerMillion: 2, CachedInputPerMillion: cached(0.025)},
		{ID: "gpt-5-nano", Vendor: "openai", Name: "GPT-5 Nano", InputPerMillion: 0.05, OutputPerMillion: 0.4, CachedInputPerMillion: cached(0.005)},
		{ID: "gpt-4.1", Vendor: "openai", Name: "GPT-4.1", InputPerMillion: 2, OutputPerMillion: 8, CachedInputPerMillion: cached(0.5)},
		{ID: "claude-opus-4.1", Vendor: "anthropic", Name: "Claude Opus 4.1", InputPerMillion: 15, OutputPerMillion: 75, CachedInputPerMillion: cached(1.5)},
		{ID: "claude-sonnet-4.5", Vendor: "anthropic", Name: "Claude Sonnet 4.5", InputPerMillion: 3, OutputPerMillion: 15, CachedInputPerMillion: cached(0.3)},
		{ID: "claude-haiku-4.5", Vendor: "anthropic", Name: "Claude Haiku 4.5", InputPerMillion: 1, OutputPerMillion: 5, CachedInputPerMillion: cached(0.1)},
		{ID: "gemini-2.5-pro", Vendor: "google", Name: "Gemini 2.5 Pro", InputPerMillion: 1.25, OutputPerMillion: 10},
		{ID: "gemini-2.5-flash", Vendor: "google", Name: "Gemini 2.5 Flash", InputPerMillion: 0.3, OutputPerMillion: 2.5},
		{ID: "gemini-2.5-flash-lite", Vendor: "google", Name: "Gemini 2.5 Flash Lite", InputPerMillion: 0.1, OutputPerMillion: 0.4},
	}

	table := make(map[string]domain.ModelPrice, len(models))
	for _, price := range models {
		table[price.ID] = price
	}

	return &domain.PriceTable{
		Models:    table,
		UpdatedAt: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
}
