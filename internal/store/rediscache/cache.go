// Package rediscache decorates a MarketStore with a read-through Redis
// cache. Ingested data is immutable for the lifetime of a query
// session, so a cached as-of result never goes stale; the TTL only
// bounds memory. Cache failures are best-effort: the query falls
// through to the backend and the session keeps working.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"optionsimv1/internal/metrics"
	"optionsimv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// Config configures the cache decorator.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration    // 0 means no expiry
	Metrics  *metrics.Metrics // optional hit/miss counters
}

// Breaker defaults: trip after 5 consecutive Redis errors, probe
// again after 30s.
const (
	breakerMaxFailures = 5
	breakerResetAfter  = 30 * time.Second
)

// Cache is a MarketStore that consults Redis before the wrapped backend.
type Cache struct {
	backend model.MarketStore
	client  *goredis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	breaker *breaker
}

// New connects to Redis and wraps the given backend. The ping failure
// is fatal here, not at query time: a cache that was configured but
// unreachable is a deployment error worth failing fast on.
func New(cfg Config, backend model.MarketStore) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	br := newBreaker(breakerMaxFailures, breakerResetAfter)
	br.onStateChange = func(from, to breakerState) {
		log.Printf("[asof-cache] breaker %s -> %s", from, to)
	}
	log.Printf("[asof-cache] connected to %s (ttl=%s)", cfg.Addr, cfg.TTL)
	return &Cache{backend: backend, client: client, ttl: cfg.TTL, metrics: cfg.Metrics, breaker: br}, nil
}

// Client exposes the underlying Redis client for health probes.
func (c *Cache) Client() *goredis.Client { return c.client }

func (c *Cache) hit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *Cache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}

// cachedGet fetches key through the breaker. A key miss is normal and
// does not count toward tripping; connection errors do.
func (c *Cache) cachedGet(ctx context.Context, key string) ([]byte, bool) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		b, err := c.client.Get(ctx, key).Bytes()
		if err == goredis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		raw = b
		return nil
	})
	return raw, err == nil && raw != nil
}

func spotKey(ticker string, ts time.Time) string {
	return fmt.Sprintf("asof:spot:%s:%d", ticker, ts.Unix())
}

func derivativeKey(symbol string, filter model.InstrumentFilter, ts time.Time) string {
	return fmt.Sprintf("asof:fo:%s:%s:%d", symbol, filter, ts.Unix())
}

// AsOfSpot returns the cached bar when present, otherwise queries the
// backend and populates the cache on a hit.
func (c *Cache) AsOfSpot(ctx context.Context, ticker string, ts time.Time) (model.SpotBar, error) {
	key := spotKey(ticker, ts)
	if raw, ok := c.cachedGet(ctx, key); ok {
		var b model.SpotBar
		if err := json.Unmarshal(raw, &b); err == nil {
			c.hit()
			return b, nil
		}
	}
	c.miss()
	b, err := c.backend.AsOfSpot(ctx, ticker, ts)
	if err != nil {
		return model.SpotBar{}, err
	}
	c.put(ctx, key, &b)
	return b, nil
}

// AsOfDerivative behaves like AsOfSpot for derivative records.
func (c *Cache) AsOfDerivative(ctx context.Context, symbol string, filter model.InstrumentFilter, ts time.Time) (model.DerivativeRecord, error) {
	key := derivativeKey(symbol, filter, ts)
	if raw, ok := c.cachedGet(ctx, key); ok {
		var r model.DerivativeRecord
		if err := json.Unmarshal(raw, &r); err == nil {
			c.hit()
			return r, nil
		}
	}
	c.miss()
	r, err := c.backend.AsOfDerivative(ctx, symbol, filter, ts)
	if err != nil {
		return model.DerivativeRecord{}, err
	}
	c.put(ctx, key, &r)
	return r, nil
}

// EarliestSpot is not cached: it runs once per session, not per step.
func (c *Cache) EarliestSpot(ctx context.Context, ticker string, from, to time.Time) (model.SpotBar, error) {
	return c.backend.EarliestSpot(ctx, ticker, from, to)
}

// ListExpiries is not cached: it runs once per session, not per step.
func (c *Cache) ListExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	return c.backend.ListExpiries(ctx, symbol)
}

func (c *Cache) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, raw, c.ttl).Err()
	})
	if err != nil && err != errBreakerOpen {
		log.Printf("[asof-cache] set %s failed: %v", key, err)
	}
}

// Close closes the Redis client and the wrapped backend.
func (c *Cache) Close() error {
	if err := c.client.Close(); err != nil {
		c.backend.Close()
		return err
	}
	return c.backend.Close()
}
