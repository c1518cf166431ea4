// Package pricing resolves the current price table: remote feed,
// TTL-bounded cache with stale fallback, and manual override file.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/observability"

	"go.uber.org/zap"
)

// ErrInvalidOverrides indicates the manual overrides file could not be
// parsed or applied.
var ErrInvalidOverrides = errors.New("invalid price overrides file")

// Resolver produces the effective price table. Resolution order:
// fresh cache, remote fetch, stale cache as a fallback when the fetch
// fails. The manual overrides file is applied after every path, so an
// edit takes effect without invalidating the cached feed snapshot.
type Resolver struct {
	source        domain.PriceSource
	store         domain.CacheStore
	clock         domain.Clock
	ttl           time.Duration
	overridesFile string
}

// NewResolver creates a new price resolver.
func NewResolver(
	source domain.PriceSource,
	store domain.CacheStore,
	clock domain.Clock,
	config Config,
) *Resolver {
	return &Resolver{
		source:        source,
		store:         store,
		clock:         clock,
		ttl:           time.Duration(config.CacheTTLHours) * time.Hour,
		overridesFile: config.OverridesFile,
	}
}

// Resolve returns the effective price table. forceRefresh skips the
// freshness check and goes straight to the source.
func (r *Resolver) Resolve(ctx context.Context, forceRefresh bool) (*domain.PriceTable, error) {
	logger := observability.FromContext(ctx)

	if !forceRefresh {
		if table, ok := r.loadFresh(ctx); ok {
			logger.Debug("using cached price table",
				zap.Int("model_count", len(table.Models)))
			return r.applyOverrides(ctx, table)
		}
	}

	table, fetchErr := r.source.Fetch(ctx)
	if fetchErr == nil {
		r.saveToCache(ctx, table)
		return r.applyOverrides(ctx, table)
	}

	logger.Warn("price fetch failed, trying stale cache", zap.Error(fetchErr))

	if stale, ok := r.loadAny(ctx); ok {
		logger.Warn("serving stale price table",
			zap.Time("updated_at", stale.UpdatedAt))
		return r.applyOverrides(ctx, stale)
	}

	return nil, fmt.Errorf("failed to fetch prices and no cache available: %w", fetchErr)
}

// loadFresh returns the cached table only when it is within the TTL.
func (r *Resolver) loadFresh(ctx context.Context) (*domain.PriceTable, bool) {
	payload, storedAt, err := r.store.Load(ctx)
	if err != nil {
		return nil, false
	}
	if r.clock.Now().Sub(storedAt) >= r.ttl {
		return nil, false
	}
	return decodeTable(ctx, payload)
}

// loadAny returns the cached table regardless of age.
func (r *Resolver) loadAny(ctx context.Context) (*domain.PriceTable, bool) {
	payload, _, err := r.store.Load(ctx)
	if err != nil {
		return nil, false
	}
	return decodeTable(ctx, payload)
}

func decodeTable(ctx context.Context, payload []byte) (*domain.PriceTable, bool) {
	var table domain.PriceTable
	if err := json.Unmarshal(payload, &table); err != nil {
		observability.FromContext(ctx).Warn("discarding corrupt price cache", zap.Error(err))
		return nil, false
	}
	if len(table.Models) == 0 {
		return nil, false
	}
	return &table, true
}

// saveToCache stores the raw feed snapshot. Overrides are never baked
// into the cache; a cache write failure is logged, not fatal.
func (r *Resolver) saveToCache(ctx context.Context, table *domain.PriceTable) {
	payload, err := json.Marshal(table)
	if err != nil {
		observability.FromContext(ctx).Warn("failed to encode price cache", zap.Error(err))
		return
	}
	if saveErr := r.store.Save(ctx, payload); saveErr != nil {
		observability.FromContext(ctx).Warn("failed to save price cache", zap.Error(saveErr))
	}
}

// manualOverride is one entry of the overrides file. Fields left out
// inherit from the feed entry; a model absent from the feed may be
// added when both base prices are present.
type manualOverride struct {
	Vendor                *string  `json:"vendor,omitempty"`
	Name                  *string  `json:"name,omitempty"`
	InputPerMillion       *float64 `json:"input_per_million,omitempty"`
	OutputPerMillion      *float64 `json:"output_per_million,omitempty"`
	CachedInputPerMillion *float64 `json:"input_cached_per_million,omitempty"`
}

// applyOverrides overlays the manual overrides file onto the table.
// A missing file is the normal case. The table argument is always a
// fresh allocation owned by the resolver, so it is mutated in place.
func (r *Resolver) applyOverrides(ctx context.Context, table *domain.PriceTable) (*domain.PriceTable, error) {
	if r.overridesFile == "" {
		return table, nil
	}

	payload, err := os.ReadFile(r.overridesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidOverrides, err)
	}

	var overrides map[string]manualOverride
	if err := json.Unmarshal(payload, &overrides); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOverrides, err)
	}

	for modelID, override := range overrides {
		base, exists := table.Models[modelID]
		if !exists {
			if override.InputPerMillion == nil || override.OutputPerMillion == nil {
				return nil, fmt.Errorf(
					"%w: new model %q requires input_per_million and output_per_million",
					ErrInvalidOverrides, modelID,
				)
			}
			base = domain.ModelPrice{ID: modelID, Vendor: "custom", Name: modelID}
		}

		if override.Vendor != nil {
			base.Vendor = *override.Vendor
		}
		if override.Name != nil {
			base.Name = *override.Name
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

		table.Models[modelID] = base
	}

	if len(overrides) > 0 {
		observability.FromContext(ctx).Info("applied price overrides",
			zap.Int("override_count", len(overrides)),
			zap.String("file", r.overridesFile),
		)
	}

	return table, nil
}
