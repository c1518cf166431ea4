package pricing

// Config contains price resolution configuration.
type Config struct {
	CacheTTLHours int    `env:"PRICE_CACHE_TTL_HOURS"  envDefault:"24"`
	CacheDir      string `env:"PRICE_CACHE_DIR"        envDefault:"data"`
	OverridesFile string `env:"PRICE_OVERRIDES_FILE"   envDefault:"data/overrides.json"`
	RedisAddr     string `env:"PRICE_CACHE_REDIS_ADDR"`
	Source        string `env:"PRICE_SOURCE"           envDefault:"llmprices"`
}
