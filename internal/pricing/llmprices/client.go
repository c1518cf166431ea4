// Package llmprices fetches the community price feed published at
// llm-prices.com and adapts it into the domain price table.
package llmprices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/observability"

	"go.uber.org/zap"
)

// Client wraps the HTTP client for price feed calls.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a new price feed client.
func NewClient(config Config) *Client {
	return &Client{
		url: config.URL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

// Price feed response structures.
type feedResponse struct {
	UpdatedAt string      `json:"updated_at"`
	Prices    []feedEntry `json:"prices"`
}

type feedEntry struct {
	ID          string  `json:"id"`
	Vendor      string  `json:"vendor"`
	Name        string  `json:"name"`
	Input       float64 `json:"input"`
	Output      float64 `json:"output"`
	InputCached float64 `json:"input_cached"`
}

// Fetch downloads the current price table.
func (c *Client) Fetch(ctx context.Context) (*domain.PriceTable, error) {
	logger := observability.FromContext(ctx)
	logger.Info("fetching price feed", zap.String("url", c.url))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("price feed returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed feedResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&feed); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode price feed: %w", decodeErr)
	}

	table := adaptFeed(feed)
	logger.Info("price feed fetched",
		zap.Int("model_count", len(table.Models)),
		zap.Time("updated_at", table.UpdatedAt),
	)

	return table, nil
}

// adaptFeed converts the wire feed into the domain table. Entries
// without an id are skipped; a missing or unparsable updated_at falls
// back to the time of the fetch, and a zero input_cached price means
// the vendor publishes no cached tier.
func adaptFeed(feed feedResponse) *domain.PriceTable {
	updatedAt := time.Now().UTC()
	if parsed, err := time.Parse(time.RFC3339, feed.UpdatedAt); err == nil {
		updatedAt = parsed
	}

	models := make(map[string]domain.ModelPrice, len(feed.Prices))
	for _, entry := range feed.Prices {
		if entry.ID == "" {
			continue
		}

		price := domain.ModelPrice{
			ID:               entry.ID,
			Vendor:           entry.Vendor,
			Name:             entry.Name,
			InputPerMillion:  entry.Input,
			OutputPerMillion: entry.Output,
		}
		if price.Vendor == "" {
			price.Vendor = "unknown"
		}
		if price.Name == "" {
			price.Name = entry.ID
		}
		if entry.InputCached > 0 {
			cached := entry.InputCached
			price.CachedInputPerMillion = &cached
		}

		models[entry.ID] = price
	}

	return &domain.PriceTable{Models: models, UpdatedAt: updatedAt}
}
