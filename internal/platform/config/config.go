package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strs "doceo/pkg/platform/strings"
)

// Server captures the ledger process configuration. One FromEnv call in main
// keeps main lean; everything else receives typed sections.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string
	Admin         string

	// Tracing selects the span exporter wiring: "noop" or "otel". The OTel
	// SDK itself is configured through the standard OTEL_* environment.
	Tracing string

	// SeedDemoData loads demo tutors, verifiers and credentials on boot.
	// Only honored when both the store and payments run in memory.
	SeedDemoData bool

	// ServiceKeyHashes are bcrypt hashes of sibling-service API keys, one
	// per service, granting read-only access to internal endpoints.
	ServiceKeyHashes []string

	Store     StoreConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Clock     ClockConfig
	Payments  PaymentsConfig
	Bootstrap BootstrapConfig
}

// StoreConfig selects the authoritative credential store.
type StoreConfig struct {
	Backend string // "memory" or "postgres"
	URL     string
}

// RedisConfig configures the optional read cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the optional event relay.
type KafkaConfig struct {
	Brokers      string
	EventsTopic  string
	Acks         string
	PollInterval time.Duration
}

// ClockConfig selects the tick source. In "wall" mode ticks derive from wall
// time elapsed since Genesis divided by Interval; "manual" mode starts at
// zero and advances only via the internal clock endpoint.
type ClockConfig struct {
	Mode     string // "wall" or "manual"
	Genesis  time.Time
	Interval time.Duration
}

// PaymentsConfig selects the payment channel implementation.
type PaymentsConfig struct {
	Mode    string // "memory" or "http"
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// BootstrapConfig seeds ledger configuration the first time a store comes up
// empty. Once the config row exists these values are ignored; ledger
// configuration is state, owned by the admin operations.
type BootstrapConfig struct {
	StorageFee           uint64
	ExpiryWindow         uint64
	MaxDocumentsPerTutor uint64
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:             envOr("DOCEO_ADDR", ":8080"),
		Environment:      envOr("DOCEO_ENV", "dev"),
		JWTSigningKey:    envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Admin:            envOr("LEDGER_ADMIN", "admin"),
		Tracing:          envOr("DOCEO_TRACING", "noop"),
		SeedDemoData:     envBool("SEED_DEMO_DATA", false),
		ServiceKeyHashes: splitNonEmpty(os.Getenv("SERVICE_KEY_HASHES")),
		Store: StoreConfig{
			Backend: envOr("STORE_BACKEND", "memory"),
			URL:     os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("REDIS_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      os.Getenv("KAFKA_BROKERS"),
			EventsTopic:  envOr("KAFKA_EVENTS_TOPIC", "ledger.events.v1"),
			Acks:         envOr("KAFKA_ACKS", "all"),
			PollInterval: envDuration("EVENTS_RELAY_INTERVAL", 500*time.Millisecond),
		},
		Clock: ClockConfig{
			Mode:     envOr("CLOCK_MODE", "wall"),
			Genesis:  envTime("CLOCK_GENESIS", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			Interval: envDuration("CLOCK_INTERVAL", 10*time.Minute),
		},
		Payments: PaymentsConfig{
			Mode:    envOr("PAYMENTS_MODE", "memory"),
			BaseURL: os.Getenv("PAYMENTS_URL"),
			APIKey:  os.Getenv("PAYMENTS_API_KEY"),
			Timeout: envDuration("PAYMENTS_TIMEOUT", 5*time.Second),
		},
		Bootstrap: BootstrapConfig{
			StorageFee:           envUint64("BOOTSTRAP_STORAGE_FEE", 500000),
			ExpiryWindow:         envUint64("BOOTSTRAP_EXPIRY_WINDOW", 52560),
			MaxDocumentsPerTutor: envUint64("BOOTSTRAP_MAX_DOCUMENTS", 10),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envUint64(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envTime(key string, fallback time.Time) time.Time {
	if v := os.Getenv(key); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	out := strs.DedupeAndTrim(strings.Split(s, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
