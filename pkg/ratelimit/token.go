package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBudget caps the number of LLM tokens spent per window. A capacity of
// zero or less disables the budget.
type TokenBudget struct {
	mu          sync.Mutex
	capacity    int
	remaining   int
	window      time.Duration
	windowStart time.Time
	now         func() time.Time
}

func NewTokenBudget(tokensPerMinute int) *TokenBudget {
	return newTokenBudget(tokensPerMinute, time.Minute, time.Now)
}

func newTokenBudget(capacity int, window time.Duration, now func() time.Time) *TokenBudget {
	return &TokenBudget{
		capacity:    capacity,
		remaining:   capacity,
		window:      window,
		windowStart: now(),
		now:         now,
	}
}

// Reserve takes tokens from the current window, sleeping until the next window
// when they do not fit. A request above capacity is clamped to a full window.
func (b *TokenBudget) Reserve(ctx context.Context, tokens int) error {
	if b.capacity <= 0 || tokens <= 0 {
		return nil
	}
	if tokens > b.capacity {
		tokens = b.capacity
	}

	for {
		b.mu.Lock()
		b.rollLocked()
		if b.remaining >= tokens {
			b.remaining -= tokens
			b.mu.Unlock()
			return nil
		}
		wait := b.windowStart.Add(b.window).Sub(b.now())
		b.mu.Unlock()

		timer := time.NewTimer(max(wait, time.Millisecond))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Settle corrects a reservation once the provider reports real usage. An
// actual of zero hands the whole reservation back.
func (b *TokenBudget) Settle(reserved, actual int) {
	if b.capacity <= 0 || actual < 0 || actual == reserved {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remaining = min(b.remaining+reserved-actual, b.capacity)
}

func (b *TokenBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.remaining
}

func (b *TokenBudget) rollLocked() {
	now := b.now()
	if now.Sub(b.windowStart) >= b.window {
		b.remaining = b.capacity
		b.windowStart = now
	}
}

// EstimateTokens approximates a prompt's token count at four characters per token.
func EstimateTokens(texts ...string) int {
	n := 0
	for _, t := range texts {
		n += len(t)
	}
	return (n + 3) / 4
}
