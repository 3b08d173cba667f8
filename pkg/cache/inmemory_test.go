package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFromCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("prices", []float64{1.5, 2.5}, time.Minute)
	c.Set("name", "AAPL", time.Minute)

	prices, ok := GetFromCache[[]float64](c, "prices")
	assert.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5}, prices)

	_, ok = GetFromCache[int](c, "name")
	assert.False(t, ok, "type mismatch must be a miss")

	_, ok = GetFromCache[string](c, "missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("short", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	calls := 0
	load := func() (map[string][]string, error) {
		calls++
		return map[string][]string{"AAPL": {"MSFT"}}, nil
	}

	first, err := GetOrLoad(c, "peers", time.Minute, load)
	require.NoError(t, err)
	second, err := GetOrLoad(c, "peers", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad_ErrorIsNotCached(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	boom := errors.New("db down")

	_, err := GetOrLoad(c, "prompt", time.Minute, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	val, err := GetOrLoad(c, "prompt", time.Minute, func() (string, error) { return "be brief", nil })
	require.NoError(t, err)
	assert.Equal(t, "be brief", val)
}
