package pricing_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/pricing"
)

type fakeSource struct {
	table   *domain.PriceTable
	err     error
	fetches int
}

func (s *fakeSource) Fetch(_ context.Context) (*domain.PriceTable, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

type fakeStore struct {
	payload  []byte
	storedAt time.Time
	saves    int
}

func (s *fakeStore) Load(_ context.Context) ([]byte, time.Time, error) {
	if s.payload == nil {
		return nil, time.Time{}, domain.ErrCacheMiss
	}
	return s.payload, s.storedAt, nil
}

func (s *fakeStore) Save(_ context.Context, payload []byte) error {
	s.payload = payload
	s.saves++
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func feedTable() *domain.PriceTable {
	return &domain.PriceTable{
		Models: map[string]domain.ModelPrice{
			"gpt-5":      {ID: "gpt-5", Vendor: "openai", Name: "GPT-5", InputPerMillion: 1.25, OutputPerMillion: 10},
			"gpt-5-mini": {ID: "gpt-5-mini", Vendor: "openai", Name: "GPT-5 Mini", InputPerMillion: 0.25, OutputPerMillion: 2},
		},
		UpdatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func encode(t *testing.T, table *domain.PriceTable) []byte {
	t.Helper()
	payload, err := json.Marshal(table)
	require.NoError(t, err)
	return payload
}

func newResolver(source *fakeSource, store *fakeStore, clock fixedClock, overridesFile string) *pricing.Resolver {
	return pricing.NewResolver(source, store, clock, pricing.Config{
		CacheTTLHours: 24,
		OverridesFile: overridesFile,
	})
}

func TestResolve_FreshCacheSkipsFetch(t *testing.T) {
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{table: feedTable()}
	store := &fakeStore{payload: encode(t, feedTable()), storedAt: now.Add(-time.Hour)}

	resolver := newResolver(source, store, fixedClock{now}, "")

	table, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, table.Models, 2)
	require.Zero(t, source.fetches)
}

func TestResolve_ExpiredCacheFetches(t *testing.T) {
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{table: feedTable()}
	store := &fakeStore{payload: encode(t, feedTable()), storedAt: now.Add(-25 * time.Hour)}

	resolver := newResolver(source, store, fixedClock{now}, "")

	_, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, source.fetches)
	require.Equal(t, 1, store.saves)
}

func TestResolve_ForceRefreshIgnoresFreshCache(t *testing.T) {
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{table: feedTable()}
	store := &fakeStore{payload: encode(t, feedTable()), storedAt: now.Add(-time.Minute)}

	resolver := newResolver(source, store, fixedClock{now}, "")

	_, err := resolver.Resolve(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, source.fetches)
}

func TestResolve_FetchFailureFallsBackToStaleCache(t *testing.T) {
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{err: errors.New("feed unreachable")}
	store := &fakeStore{payload: encode(t, feedTable()), storedAt: now.Add(-72 * time.Hour)}

	resolver := newResolver(source, store, fixedClock{now}, "")

	table, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, table.Models, 2)
}

func TestResolve_FetchFailureWithoutCacheFails(t *testing.T) {
	source := &fakeSource{err: errors.New("feed unreachable")}
	store := &fakeStore{}

	resolver := newResolver(source, store, fixedClock{time.Now()}, "")

	table, err := resolver.Resolve(context.Background(), false)
	require.Error(t, err)
	require.Nil(t, table)
	require.Contains(t, err.Error(), "feed unreachable")
}

func TestResolve_CorruptCacheFetches(t *testing.T) {
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{table: feedTable()}
	store := &fakeStore{payload: []byte("not json"), storedAt: now.Add(-time.Hour)}

	resolver := newResolver(source, store, fixedClock{now}, "")

	table, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, table.Models, 2)
	require.Equal(t, 1, source.fetches)
}

func writeOverrides(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_AppliesOverridesToExistingModel(t *testing.T) {
	path := writeOverrides(t, `{"gpt-5": {"input_per_million": 0.9}}`)
	source := &fakeSource{table: feedTable()}

	resolver := newResolver(source, &fakeStore{}, fixedClock{time.Now()}, path)

	table, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)

	price, ok := table.Lookup("gpt-5")
	require.True(t, ok)
	require.InDelta(t, 0.9, price.InputPerMillion, 1e-9)
	require.InDelta(t, 10, price.OutputPerMillion, 1e-9)
}

func TestResolve_OverridesMayAddNewModel(t *testing.T) {
	path := writeOverrides(t, `{
		"in-house-llm": {"vendor": "acme", "input_per_million": 0.1, "output_per_million": 0.3}
	}`)
	source := &fakeSource{table: feedTable()}

	resolver := newResolver(source, &fakeStore{}, fixedClock{time.Now()}, path)

	table, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)

	price, ok := table.Lookup("in-house-llm")
	require.True(t, ok)
	require.Equal(t, "acme", price.Vendor)
	require.Equal(t, "in-house-llm", price.Name)
	require.InDelta(t, 0.1, price.InputPerMillion, 1e-9)
}

func TestResolve_OverridesNotBakedIntoCache(t *testing.T) {
	path := writeOverrides(t, `{"gpt-5": {"input_per_million": 0.9}}`)
	source := &fakeSource{table: feedTable()}
	store := &fakeStore{}

	resolver := newResolver(source, store, fixedClock{time.Now()}, path)

	_, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)

	var cached domain.PriceTable
	require.NoError(t, json.Unmarshal(store.payload, &cached))
	require.InDelta(t, 1.25, cached.Models["gpt-5"].InputPerMillion, 1e-9)
}

func TestResolve_MalformedOverrides(t *testing.T) {
	path := writeOverrides(t, `{"gpt-5": `)
	source := &fakeSource{table: feedTable()}

	resolver := newResolver(source, &fakeStore{}, fixedClock{time.Now()}, path)

	table, err := resolver.Resolve(context.Background(), false)
	require.Nil(t, table)
	require.ErrorIs(t, err, pricing.ErrInvalidOverrides)
}

func TestResolve_NewModelOverrideRequiresBasePrices(t *testing.T) {
	path := writeOverrides(t, `{"in-house-llm": {"input_per_million": 0.1}}`)
	source := &fakeSource{table: feedTable()}

	resolver := newResolver(source, &fakeStore{}, fixedClock{time.Now()}, path)

	table, err := resolver.Resolve(context.Background(), false)
	require.Nil(t, table)
	require.ErrorIs(t, err, pricing.ErrInvalidOverrides)
}

func TestResolve_MissingOverridesFileIsFine(t *testing.T) {
	source := &fakeSource{table: feedTable()}

	resolver := newResolver(source, &fakeStore{}, fixedClock{time.Now()},
		filepath.Join(t.TempDir(), "does-not-exist.json"))

	table, err := resolver.Resolve(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, table.Models, 2)
}
