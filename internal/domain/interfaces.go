package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates no usable cached price table was found.
var ErrCacheMiss = errors.New("price cache miss")

// Engine computes a cost breakdown from a scenario and a price table.
type Engine interface {
	// Compute calculates the monthly cost breakdown for one scenario.
	Compute(scenario *Scenario, table *PriceTable) (*CostBreakdown, error)
}

// PriceSource produces a price table.
type PriceSource interface {
	// Fetch returns the current price table.
	Fetch(ctx context.Context) (*PriceTable, error)
}

// CacheStore persists a serialized price table between runs.
type CacheStore interface {
	// Load returns the cached payload and the time it was stored.
	// Returns ErrCacheMiss when nothing is cached.
	Load(ctx context.Context) ([]byte, time.Time, error)

	// Save stores the payload, replacing any previous entry.
	Save(ctx context.Context, payload []byte) error
}

// Clock supplies the current time. Injected so cache freshness can be
// tested against a fixed time.
type Clock interface {
	Now() time.Time
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
