// Package redis owns the cache connection used by the read-through store.
// The client is optional: an empty REDIS_URL leaves the ledger running
// straight off Postgres.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"doceo/internal/platform/config"
)

var (
	poolHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doceo_redis_pool_hits_total",
		Help: "Connections served from the pool",
	})
	poolMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doceo_redis_pool_misses_total",
		Help: "Connections that had to be dialed",
	})
	poolTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doceo_redis_pool_timeouts_total",
		Help: "Pool checkouts that timed out",
	})
	poolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "doceo_redis_pool_total_conns",
		Help: "Connections currently held by the pool",
	})
	poolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "doceo_redis_pool_idle_conns",
		Help: "Idle connections in the pool",
	})
	poolStaleConns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doceo_redis_pool_stale_conns_total",
		Help: "Stale connections removed from the pool",
	})
)

// Client wraps go-redis with a health probe and pool metrics.
type Client struct {
	*redis.Client
	lastStats *redis.PoolStats
}

// New dials Redis and verifies the connection. An empty URL returns
// (nil, nil) so callers can treat the cache as absent.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	// Fail startup fast when the cache is configured but unreachable.
	pingBudget := cfg.DialTimeout
	if pingBudget <= 0 {
		pingBudget = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingBudget)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// RecordPoolStats publishes pool gauges and counter deltas. Called from
// the stats goroutine on its fixed interval.
func (c *Client) RecordPoolStats() {
	stats := c.PoolStats()

	poolTotalConns.Set(float64(stats.TotalConns))
	poolIdleConns.Set(float64(stats.IdleConns))

	// go-redis reports running totals; convert to deltas so restarts of
	// the stats loop never double-count.
	var last redis.PoolStats
	if c.lastStats != nil {
		last = *c.lastStats
	}
	addDelta(poolHits, stats.Hits, last.Hits)
	addDelta(poolMisses, stats.Misses, last.Misses)
	addDelta(poolTimeouts, stats.Timeouts, last.Timeouts)
	addDelta(poolStaleConns, stats.StaleConns, last.StaleConns)

	c.lastStats = stats
}

func addDelta(counter prometheus.Counter, current, previous uint32) {
	if current > previous {
		counter.Add(float64(current - previous))
	}
}
