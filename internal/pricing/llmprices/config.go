package llmprices

// Config contains the price feed endpoint configuration.
type Config struct {
	URL     string `env:"LLM_PRICES_URL"     envDefault:"https://www.llm-prices.com/current-v1.json"`
	Timeout int    `env:"LLM_PRICES_TIMEOUT" envDefault:"30"`
}
