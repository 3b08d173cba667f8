package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is the process-local store behind system parameters and, when redis
// is disabled, market data.
type Cache interface {
	Set(key string, value interface{}, duration time.Duration)
	Get(key string) (interface{}, bool)
	Delete(key string)
}

type goCache struct {
	internal *cache.Cache
}

// NewCache returns a new Cache instance with default expiration and cleanup interval
func NewCache(defaultExpiration, cleanupInterval time.Duration) Cache {
	return &goCache{
		internal: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *goCache) Set(key string, value interface{}, duration time.Duration) {
	c.internal.Set(key, value, duration)
}

func (c *goCache) Get(key string) (interface{}, bool) {
	return c.internal.Get(key)
}

func (c *goCache) Delete(key string) {
	c.internal.Delete(key)
}

// GetFromCache returns the value under key when it exists and has type T.
func GetFromCache[T any](c Cache, key string) (T, bool) {
	val, found := c.Get(key)
	if !found {
		var zero T
		return zero, false
	}
	typedVal, ok := val.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return typedVal, true
}

// GetOrLoad returns the cached T under key, or calls load and caches its
// result for ttl. Load errors are returned and never cached.
func GetOrLoad[T any](c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if val, ok := GetFromCache[T](c, key); ok {
		return val, nil
	}
	val, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, val, ttl)
	return val, nil
}
