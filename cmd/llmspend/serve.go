package main

import (
	"log"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/davidbz/llmspend/internal/cache/disk"
	rediscache "github.com/davidbz/llmspend/internal/cache/redis"
	"github.com/davidbz/llmspend/internal/config"
	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/http"
	"github.com/davidbz/llmspend/internal/http/middleware"
	"github.com/davidbz/llmspend/internal/observability"
	"github.com/davidbz/llmspend/internal/pricing"
	"github.com/davidbz/llmspend/internal/pricing/llmprices"
	"github.com/davidbz/llmspend/internal/pricing/static"
	"github.com/davidbz/llmspend/internal/report"
	"github.com/davidbz/llmspend/internal/scenario"
	"github.com/davidbz/llmspend/internal/simulator"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the spend dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container := buildContainer()

			return container.Invoke(func(server *http.Server) error {
				return server.Start()
			})
		},
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Pricing stack
	if err := container.Provide(func(cfg *pricing.Config) domain.CacheStore {
		if cfg.RedisAddr != "" {
			client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
			return rediscache.NewStore(client, time.Duration(cfg.CacheTTLHours)*time.Hour)
		}
		return disk.NewStore(cfg.CacheDir)
	}); err != nil {
		log.Fatalf("Failed to provide cache store: %v", err)
	}
	if err := container.Provide(func(cfg *pricing.Config, feedCfg *llmprices.Config) domain.PriceSource {
		if cfg.Source == "static" {
			return static.NewSource()
		}
		return llmprices.NewClient(*feedCfg)
	}); err != nil {
		log.Fatalf("Failed to provide price source: %v", err)
	}
	if err := container.Provide(func(
		source domain.PriceSource,
		store domain.CacheStore,
		cfg *pricing.Config,
	) simulator.PriceResolver {
		return pricing.NewResolver(source, store, pricing.NewSystemClock(), *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide price resolver: %v", err)
	}

	// Scenario loading
	if err := container.Provide(func(cfg *scenario.Config) simulator.ScenarioLoader {
		return scenario.NewLoader(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide scenario loader: %v", err)
	}

	// Domain services
	if err := container.Provide(func() domain.Engine {
		return domain.NewCostEngine()
	}); err != nil {
		log.Fatalf("Failed to provide cost engine: %v", err)
	}
	if err := container.Provide(func() domain.EventPublisher {
		return observability.NewEventBus(slog.Default())
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}
	if err := container.Provide(simulator.NewSimulator); err != nil {
		log.Fatalf("Failed to provide simulator: %v", err)
	}
	if err := container.Provide(report.NewReporter); err != nil {
		log.Fatalf("Failed to provide reporter: %v", err)
	}

	// HTTP layer
	if err := container.Provide(func(corsConfig *config.CORSConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(corsConfig)
	}); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
