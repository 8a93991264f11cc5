// Package database owns the Postgres connection pool.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const startupPingTimeout = 5 * time.Second

var (
	dbPoolOpenConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "doceo_db_pool_open_conns",
		Help: "Open connections, in use plus idle",
	})
	dbPoolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "doceo_db_pool_idle_conns",
		Help: "Idle connections in the pool",
	})
	dbPoolWaitCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doceo_db_pool_waits_total",
		Help: "Times a request had to wait for a connection",
	})
	dbPoolWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doceo_db_pool_wait_seconds_total",
		Help: "Total time spent waiting for a connection",
	})
)

// Config holds pool settings. The defaults suit a single ledger instance;
// raise MaxOpenConns before raising request concurrency.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns the settings production starts from.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

// Pool wraps *sql.DB with health checking and pool metrics.
type Pool struct {
	db        *sql.DB
	lastStats sql.DBStats
}

// New opens a pool over the pgx stdlib driver and verifies the database
// answers before returning it.
func New(cfg Config) (*Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{db: db}, nil
}

func (p *Pool) ready() bool { return p != nil && p.db != nil }

// DB exposes the underlying *sql.DB for stores and transaction adapters.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health reports whether the database answers a ping.
func (p *Pool) Health(ctx context.Context) error {
	if !p.ready() {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// Close releases every pooled connection.
func (p *Pool) Close() error {
	if !p.ready() {
		return nil
	}
	return p.db.Close()
}

// RecordPoolStats refreshes the pool metrics. Call it periodically from a
// background goroutine; counters advance by the delta since the last call.
func (p *Pool) RecordPoolStats() {
	if !p.ready() {
		return
	}
	stats := p.db.Stats()

	dbPoolOpenConns.Set(float64(stats.OpenConnections))
	dbPoolIdleConns.Set(float64(stats.Idle))

	if d := stats.WaitCount - p.lastStats.WaitCount; d > 0 {
		dbPoolWaitCount.Add(float64(d))
	}
	if d := stats.WaitDuration - p.lastStats.WaitDuration; d > 0 {
		dbPoolWaitSeconds.Add(d.Seconds())
	}
	p.lastStats = stats
}
