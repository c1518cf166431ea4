// Package redis persists the price cache in Redis, so multiple
// dashboard replicas share one feed snapshot.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidbz/llmspend/internal/domain"
	"github.com/davidbz/llmspend/internal/observability"
)

const (
	cacheKey       = "llmspend:price_cache"
	payloadField   = "payload"
	storedAtField  = "stored_at"
	retentionRatio = 4 // keep entries well past the TTL for stale fallback
)

// Store implements domain.CacheStore on a Redis hash. Entries expire at
// a multiple of the freshness TTL, so a stale snapshot stays available
// as a fallback when the feed is down.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis price cache store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Load returns the cached payload and its stored-at timestamp.
func (s *Store) Load(ctx context.Context) ([]byte, time.Time, error) {
	fields, err := s.client.HGetAll(ctx, cacheKey).Result()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load price cache: %w", err)
	}

	payload, ok := fields[payloadField]
	if !ok {
		return nil, time.Time{}, domain.ErrCacheMiss
	}

	storedUnix, err := strconv.ParseInt(fields[storedAtField], 10, 64)
	if err != nil {
		observability.FromContext(ctx).Warn("price cache missing stored_at, treating as miss",
			zap.Error(err))
		return nil, time.Time{}, domain.ErrCacheMiss
	}

	return []byte(payload), time.Unix(storedUnix, 0), nil
}

// Save stores the payload, replacing any previous entry.
func (s *Store) Save(ctx context.Context, payload []byte) error {
	logger := observability.FromContext(ctx)
	logger.Debug("saving price cache to redis",
		zap.Int("payload_size", len(payload)))

	pipe := s.client.Pipeline()

	pipe.HSet(ctx, cacheKey,
		payloadField, string(payload),
		storedAtField, time.Now().Unix(),
	)

	if s.ttl > 0 {
		pipe.Expire(ctx, cacheKey, s.ttl*retentionRatio)
	}

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		return fmt.Errorf("failed to save price cache: %w", execErr)
	}

	return nil
}
