package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LimiterStore keeps one token-bucket limiter per key (client ip, user id).
type LimiterStore struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	r        rate.Limit
	burst    int
	ttl      time.Duration
}

func NewLimiterStore(r rate.Limit, burst int, ttl time.Duration) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*limiterEntry),
		r:        r,
		burst:    burst,
		ttl:      ttl,
	}
}

func (s *LimiterStore) GetLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry, exists := s.limiters[key]; exists {
		entry.lastAccess = now
		return entry.limiter
	}
	s.evictLocked(now)
	limiter := rate.NewLimiter(s.r, s.burst)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastAccess: now}
	return limiter
}

// Allow reports whether key may perform one more request now.
func (s *LimiterStore) Allow(key string) bool {
	ok, _ := s.Take(key)
	return ok
}

// Take consumes one token for key. When none is available it returns false
// and how long until the next token frees up.
func (s *LimiterStore) Take(key string) (bool, time.Duration) {
	r := s.GetLimiter(key).Reserve()
	if !r.OK() {
		return false, 0
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, delay
	}
	return true, 0
}

func (s *LimiterStore) evictLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for key, entry := range s.limiters {
		if now.Sub(entry.lastAccess) > s.ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
