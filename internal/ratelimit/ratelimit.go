// Package ratelimit throttles API clients with an in-memory token bucket
// per client key.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// entry tracks the token-bucket state for a single key.
type entry struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter gives each key limit tokens per window, refilled continuously.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
	now     func() time.Time
}

func New(window time.Duration) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		window:  window,
		now:     time.Now,
	}
}

// Allow consumes one token for key. When the bucket is empty it returns
// false and how long until the next token is available.
func (l *Limiter) Allow(key string, limit int) (bool, time.Duration) {
	if limit <= 0 {
		return false, l.window
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, exists := l.entries[key]
	if !exists {
		l.entries[key] = &entry{tokens: float64(limit - 1), lastCheck: now}
		return true, 0
	}

	rate := float64(limit) / l.window.Seconds()
	e.tokens = math.Min(float64(limit), e.tokens+now.Sub(e.lastCheck).Seconds()*rate)
	e.lastCheck = now

	if e.tokens < 1 {
		wait := time.Duration((1 - e.tokens) / rate * float64(time.Second))
		return false, wait
	}
	e.tokens--
	return true, 0
}

// Reset clears the state for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Len reports how many keys are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run evicts keys idle for two windows, every interval, until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-ctx.Done():
			return nil
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-2 * l.window)
	for key, e := range l.entries {
		if e.lastCheck.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
