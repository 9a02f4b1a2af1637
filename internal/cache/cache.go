// Package cache memoises extraction results in an in-process LRU backed by
// an optional shared Redis tier.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/resilience"
)

const keyPrefix = "keywords:"

// Backend is the shared tier. Get reports a missing key with
// pkgredis.ErrMiss.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	LRUHits   int64  `json:"lru_hits"`
	RedisHits int64  `json:"redis_hits"`
	Entries   int    `json:"entries"`
	Redis     bool   `json:"redis"`
	Breaker   string `json:"breaker,omitempty"`
}

// Cache is safe for concurrent use.
type Cache struct {
	local   *lru.Cache[string, []keywords.Keyword]
	remote  Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger

	lruHits   atomic.Int64
	redisHits atomic.Int64
	misses    atomic.Int64
}

type Option func(*Cache)

// WithMetrics reports hits, misses and breaker state to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New builds a cache holding cfg.LRUSize results in memory. remote may be
// nil, in which case only the LRU is used.
func New(cfg config.CacheConfig, remote Backend, ttl time.Duration, opts ...Option) (*Cache, error) {
	local, err := lru.New[string, []keywords.Keyword](cfg.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	c := &Cache{
		local:  local,
		remote: remote,
		ttl:    ttl,
		logger: slog.Default().With("component", "keyword-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if remote != nil {
		c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(name string, to resilience.State) {
				if c.metrics != nil {
					c.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		})
	}
	return c, nil
}

// Key derives the cache key for an extraction request. content is keyed as
// given; callers normalise it the same way they do before analysis.
func Key(content string, topN int) string {
	sum := sha256.Sum256([]byte(content + "|n=" + strconv.Itoa(topN)))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Get looks in the LRU, then Redis. A Redis hit is promoted into the LRU.
func (c *Cache) Get(ctx context.Context, content string, topN int) ([]keywords.Keyword, bool) {
	key := Key(content, topN)
	if kws, ok := c.local.Get(key); ok {
		c.recordHit("lru")
		return slices.Clone(kws), true
	}
	if kws, ok := c.getRemote(ctx, key); ok {
		c.local.Add(key, kws)
		c.recordHit("redis")
		return slices.Clone(kws), true
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
	return nil, false
}

// Set stores kws in both tiers. Redis failures are logged, not returned.
func (c *Cache) Set(ctx context.Context, content string, topN int, kws []keywords.Keyword) {
	key := Key(content, topN)
	kws = slices.Clone(kws)
	c.local.Add(key, kws)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(kws)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.remote.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached keywords or runs compute once per key,
// however many callers miss at the same time. Waiting callers share the
// leader's Result, counts included. compute runs detached from the caller's
// cancellation so one caller going away does not fail the others; each
// caller still stops waiting when its own ctx is done. The bool reports a
// cache hit, in which case only Keywords is set.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	content string,
	topN int,
	compute func(ctx context.Context) (keywords.Result, error),
) (keywords.Result, bool, error) {
	if kws, ok := c.Get(ctx, content, topN); ok {
		return keywords.Result{Keywords: kws}, true, nil
	}
	key := Key(content, topN)
	ch := c.group.DoChan(key, func() (any, error) {
		if kws, ok := c.local.Get(key); ok {
			return keywords.Result{Keywords: kws}, nil
		}
		shared := context.WithoutCancel(ctx)
		res, err := compute(shared)
		if err != nil {
			return nil, err
		}
		c.Set(shared, content, topN, res.Keywords)
		return res, nil
	})
	select {
	case <-ctx.Done():
		return keywords.Result{}, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return keywords.Result{}, false, r.Err
		}
		res := r.Val.(keywords.Result)
		res.Keywords = slices.Clone(res.Keywords)
		return res, false, nil
	}
}

// Invalidate empties the LRU and deletes every extraction key in Redis,
// returning how many Redis keys were removed.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	c.local.Purge()
	if c.remote == nil {
		c.logger.Info("cache invalidated", "keys_deleted", 0)
		return 0, nil
	}
	deleted, err := c.remote.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *Cache) Stats() Stats {
	s := Stats{
		LRUHits:   c.lruHits.Load(),
		RedisHits: c.redisHits.Load(),
		Misses:    c.misses.Load(),
		Entries:   c.local.Len(),
		Redis:     c.remote != nil,
	}
	s.Hits = s.LRUHits + s.RedisHits
	if c.breaker != nil {
		s.Breaker = c.breaker.State().String()
	}
	return s
}

func (c *Cache) getRemote(ctx context.Context, key string) ([]keywords.Keyword, bool) {
	if c.remote == nil {
		return nil, false
	}
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.remote.Get(ctx, key)
		if errors.Is(err, pkgredis.ErrMiss) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var kws []keywords.Keyword
	if err := json.Unmarshal(data, &kws); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	if kws == nil {
		kws = []keywords.Keyword{}
	}
	return kws, true
}

func (c *Cache) recordHit(tier string) {
	if tier == "lru" {
		c.lruHits.Add(1)
	} else {
		c.redisHits.Add(1)
	}
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}
