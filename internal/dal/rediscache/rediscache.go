package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// RecommendationCache is a read-through Redis cache for recommendation
// lists. Every failure is logged and treated as a miss, so a degraded Redis
// never breaks the recommendation call.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// MustNewRecommendationCache creates a cache backed by Redis.
func MustNewRecommendationCache() *RecommendationCache {
	addr := os.Getenv("COMMERCE_REDIS_ADDR")
	if addr == "" {
		addr = "redis:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("COMMERCE_REDIS_PASSWORD"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	ttlSeconds := viper.GetInt("redis.recommend_ttl_seconds")
	if ttlSeconds == 0 {
		ttlSeconds = 300
	}

	return &RecommendationCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

// Close closes the Redis connection for graceful shutdown.
func (c *RecommendationCache) Close() error {
	return c.client.Close()
}

func key(productID string, limit int) string {
	return fmt.Sprintf("recommend:%s:%d", productID, limit)
}

// Get returns the cached list for the product and limit, if present.
func (c *RecommendationCache) Get(ctx context.Context, productID string, limit int) ([]string, bool) {
	raw, err := c.client.Get(ctx, key(productID, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(ctx, "recommendation cache read failed", "error", err)
		}
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		slog.WarnContext(ctx, "recommendation cache entry corrupt", "error", err)
		return nil, false
	}

	return ids, true
}

// Set stores the list for the product and limit with the configured TTL.
func (c *RecommendationCache) Set(ctx context.Context, productID string, limit int, ids []string) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(productID, limit), raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "recommendation cache write failed", "error", err)
	}
}
