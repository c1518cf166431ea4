package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/llmspend/internal/domain"
)

func TestPriceTable_Merged(t *testing.T) {
	table := testTable()

	merged, err := table.Merged(map[string]domain.PriceOverride{
		"model-a": {InputPerMillion: f64(50)},
	})
	require.NoError(t, err)

	overridden, ok := merged.Lookup("model-a")
	require.True(t, ok)
	require.InDelta(t, 50, overridden.InputPerMillion, 1e-9)
	require.InDelta(t, 15, overridden.OutputPerMillion, 1e-9)

	// The base table is untouched.
	base, ok := table.Lookup("model-a")
	require.True(t, ok)
	require.InDelta(t, 5, base.InputPerMillion, 1e-9)

	require.Equal(t, table.UpdatedAt, merged.UpdatedAt)
}

func TestPriceTable_MergedNoOverrides(t *testing.T) {
	table := testTable()

	merged, err := table.Merged(nil)
	require.NoError(t, err)
	require.Same(t, table, merged)
}

func TestPriceTable_MergedUnknownModel(t *testing.T) {
	table := testTable()

	merged, err := table.Merged(map[string]domain.PriceOverride{
		"missing-model": {InputPerMillion: f64(1)},
	})
	require.Nil(t, merged)

	var unknownErr *domain.UnknownModelError
	require.ErrorAs(t, err, &unknownErr)
	require.Equal(t, "missing-model", unknownErr.Model)
}

func TestPriceTable_MergedCachedInput(t *testing.T) {
	table := testTable()

	merged, err := table.Merged(map[string]domain.PriceOverride{
		"model-a": {CachedInputPerMillion: f64(0.5)},
	})
	require.NoError(t, err)

	price, ok := merged.Lookup("model-a")
	require.True(t, ok)
	require.NotNil(t, price.CachedInputPerMillion)
	require.InDelta(t, 0.5, *price.CachedInputPerMillion, 1e-9)
}
