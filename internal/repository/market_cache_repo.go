package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"market-insight/pkg/cache"
	"market-insight/pkg/redis"
	"time"
)

const (
	MarketCacheBackendRedis  = "redis"
	MarketCacheBackendMemory = "memory"
)

// MarketCacheRepository stores JSON-encoded values with a TTL.
type MarketCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Backend() string
}

type redisMarketCache struct {
	client *redis.Client
}

func NewRedisMarketCache(client *redis.Client) MarketCacheRepository {
	return &redisMarketCache{client: client}
}

func (r *redisMarketCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, found, err := r.client.GetBytes(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (r *redisMarketCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.SetWithExpiration(ctx, key, raw, ttl)
}

func (r *redisMarketCache) Delete(ctx context.Context, key string) error {
	return r.client.DeleteKey(ctx, key)
}

func (r *redisMarketCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *redisMarketCache) Backend() string {
	return MarketCacheBackendRedis
}

// memoryMarketCache keeps encoded bytes so callers never share mutable values.
type memoryMarketCache struct {
	cache cache.Cache
}

func NewMemoryMarketCache(c cache.Cache) MarketCacheRepository {
	return &memoryMarketCache{cache: c}
}

func (m *memoryMarketCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, found := cache.GetFromCache[[]byte](m.cache, key)
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (m *memoryMarketCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.cache.Set(key, raw, ttl)
	return nil
}

func (m *memoryMarketCache) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

func (m *memoryMarketCache) Ping(context.Context) error {
	return nil
}

func (m *memoryMarketCache) Backend() string {
	return MarketCacheBackendMemory
}
