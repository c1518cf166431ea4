package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/davidbz/llmspend/internal/cache/disk"
	rediscache "github.com/davidbz/llmspend/internal/cache/redis"
	"github.com/davidbz/llmspend/internal/config"
	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/observability"
	"github.com/davidbz/llmspend/internal/pricing"
	"github.com/davidbz/llmspend/internal/pricing/llmprices"
	"github.com/davidbz/llmspend/internal/pricing/static"
	"github.com/davidbz/llmspend/internal/scenario"
	"github.com/davidbz/llmspend/internal/simulator"
)

// buildCacheStore selects the price cache backend: Redis when an
// address is configured, the local disk file otherwise.
func buildCacheStore(cfg *config.Config) domain.CacheStore {
	if cfg.Pricing.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Pricing.RedisAddr})
		ttl := time.Duration(cfg.Pricing.CacheTTLHours) * time.Hour
		return rediscache.NewStore(client, ttl)
	}
	return disk.NewStore(cfg.Pricing.CacheDir)
}

// buildPriceSource selects the feed: the public llm-prices endpoint by
// default, the built-in snapshot when PRICE_SOURCE=static.
func buildPriceSource(cfg *config.Config) domain.PriceSource {
	if cfg.Pricing.Source == "static" {
		return static.NewSource()
	}
	return llmprices.NewClient(cfg.LLMPrices)
}

// buildSimulator assembles the full simulation stack for CLI commands.
func buildSimulator(cfg *config.Config) *simulator.Simulator {
	resolver := pricing.NewResolver(
		buildPriceSource(cfg),
		buildCacheStore(cfg),
		pricing.NewSystemClock(),
		cfg.Pricing,
	)
	loader := scenario.NewLoader(cfg.Scenarios)
	events := observability.NewEventBus(slog.Default())

	return simulator.NewSimulator(resolver, loader, domain.NewCostEngine(), events)
}

// emit prints the rendered report and optionally saves it to a file.
func emit(output, savePath string) error {
	fmt.Println(output)

	if savePath == "" {
		return nil
	}

	if dir := filepath.Dir(savePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(savePath, []byte(output), 0o644); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	fmt.Printf("\nResults saved to %s\n", savePath)
	return nil
}
