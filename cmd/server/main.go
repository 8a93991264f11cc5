package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doceo/internal/jwtauth"
	"doceo/internal/ledger/handler"
	ledgermetrics "doceo/internal/ledger/metrics"
	"doceo/internal/ledger/models"
	"doceo/internal/ledger/outbox"
	"doceo/internal/ledger/service"
	"doceo/internal/ledger/store"
	"doceo/internal/ledger/tracer"
	"doceo/internal/payments"
	"doceo/internal/platform/config"
	"doceo/internal/platform/database"
	"doceo/internal/platform/health"
	"doceo/internal/platform/httpserver"
	"doceo/internal/platform/kafka/producer"
	"doceo/internal/platform/logger"
	"doceo/internal/platform/metrics"
	platformredis "doceo/internal/platform/redis"
	"doceo/internal/platform/tickclock"
	"doceo/internal/seeder"
	httptransport "doceo/internal/transport/http"
	id "doceo/pkg/domain"
	"doceo/pkg/platform/middleware/requesttick"
)

const (
	tokenIssuer   = "doceo"
	tokenAudience = "doceo-ledger"
	tokenTTL      = time.Hour

	statsInterval = 15 * time.Second
)

// main wires dependencies from configuration and keeps the server lifecycle
// small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing credential ledger",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"store", cfg.Store.Backend,
		"clock", cfg.Clock.Mode,
		"payments", cfg.Payments.Mode,
	)

	admin, err := id.ParsePrincipal(cfg.Admin)
	if err != nil {
		log.Error("invalid admin principal", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New(cfg.Environment)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}

	// Stores. Postgres is authoritative in production; the in-memory store
	// backs development and tests. The optional Redis cache sits in front of
	// reads only, so the transaction boundary must invalidate it on commit.
	var (
		reads store.Store
		txB   service.StoreTx
		pool  *database.Pool
	)
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Store.URL == "" {
			log.Error("DATABASE_URL is required when STORE_BACKEND is postgres")
			os.Exit(1)
		}
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.Store.URL
		pool, err = database.New(dbCfg)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})

		var (
			inner store.Store = store.NewPostgres(pool.DB())
			cache *store.CachedStore
		)
		if redisClient != nil {
			cache = store.NewCached(inner, redisClient.Client, cfg.Redis.CacheTTL, log)
			inner = cache
		}
		reads = inner
		txB = newLedgerPostgresTx(pool.DB(), cache)
	case "memory":
		mem := store.New()
		reads = mem
		txB = service.NewMemoryTx(mem)
	default:
		log.Error("unknown store backend", "backend", cfg.Store.Backend)
		os.Exit(1)
	}

	// Tracing is off unless configured; components default to noop tracers.
	var (
		svcOpts     []service.Option
		handlerOpts []handler.Option
		payOpts     []payments.HTTPChannelOption
	)
	if cfg.Tracing == "otel" {
		trc := tracer.NewOTel()
		svcOpts = append(svcOpts, service.WithTracer(trc))
		handlerOpts = append(handlerOpts, handler.WithTracer(trc))
		payOpts = append(payOpts, payments.WithTracer(trc))
	}
	svcOpts = append(svcOpts, service.WithMetrics(ledgermetrics.New()))

	var (
		bank    payments.Channel
		memBank *payments.MemoryBank
	)
	switch cfg.Payments.Mode {
	case "http":
		if cfg.Payments.BaseURL == "" {
			log.Error("PAYMENTS_URL is required when PAYMENTS_MODE is http")
			os.Exit(1)
		}
		bank = payments.NewHTTPChannel(cfg.Payments.BaseURL, cfg.Payments.APIKey, cfg.Payments.Timeout, log, payOpts...)
	case "memory":
		memBank = payments.NewMemoryBank()
		bank = memBank
	default:
		log.Error("unknown payments mode", "mode", cfg.Payments.Mode)
		os.Exit(1)
	}

	// Clock. Wall mode derives ticks from elapsed time; manual mode starts
	// at zero and moves only through the internal clock endpoints.
	var (
		ticks        requesttick.Source
		clockHandler *tickclock.Handler
	)
	switch cfg.Clock.Mode {
	case "manual":
		manual := tickclock.NewManual(0)
		clockHandler = tickclock.NewHandler(manual, log)
		ticks = manual
	case "wall":
		ticks = tickclock.NewWall(cfg.Clock.Genesis, cfg.Clock.Interval)
	default:
		log.Error("unknown clock mode", "mode", cfg.Clock.Mode)
		os.Exit(1)
	}

	ledgerService := service.NewService(txB, reads, bank, log, svcOpts...)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ledgerService.Bootstrap(bootCtx, models.Config{
		Admin:        admin,
		StorageFee:   id.Amount(cfg.Bootstrap.StorageFee),
		ExpiryWindow: cfg.Bootstrap.ExpiryWindow,
		MaxDocuments: cfg.Bootstrap.MaxDocumentsPerTutor,
	})
	bootCancel()
	if err != nil {
		log.Error("ledger bootstrap failed", "error", err)
		os.Exit(1)
	}

	if cfg.SeedDemoData {
		if cfg.Store.Backend != "memory" || memBank == nil {
			log.Warn("demo data seeding skipped: requires memory store and memory payments")
		} else {
			seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = seeder.New(ledgerService, memBank, admin, ticks, log).SeedAll(seedCtx)
			seedCancel()
			if err != nil {
				log.Error("demo data seeding failed", "error", err)
				os.Exit(1)
			}
		}
	}

	// Event relay, when a broker is configured. Events are written by the
	// service transactionally; the relay ships pending rows to Kafka.
	var (
		relay     *outbox.Relay
		kafkaProd *producer.Producer
	)
	if cfg.Kafka.Brokers != "" {
		kafkaProd, err = producer.New(producer.Config{
			Brokers: cfg.Kafka.Brokers,
			Acks:    cfg.Kafka.Acks,
		}, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		relay = outbox.New(reads, kafkaProd,
			outbox.WithTopic(cfg.Kafka.EventsTopic),
			outbox.WithPollInterval(cfg.Kafka.PollInterval),
			outbox.WithMetrics(outbox.NewMetrics()),
			outbox.WithLogger(log),
		)
		relay.Start()
		healthHandler.RegisterCheck("kafka", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if !kafkaProd.Healthy(ctx) {
				return fmt.Errorf("kafka brokers unreachable")
			}
			return nil
		})
	}

	if redisClient != nil || relay != nil || pool != nil {
		go func() {
			t := time.NewTicker(statsInterval)
			defer t.Stop()
			for range t.C {
				if redisClient != nil {
					redisClient.RecordPoolStats()
				}
				if pool != nil {
					pool.RecordPoolStats()
				}
				if relay != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					if err := relay.RefreshQueueDepth(ctx); err != nil {
						log.Warn("event queue depth refresh failed", "error", err)
					}
					cancel()
				}
			}
		}()
	}

	tokens := jwtauth.NewService(cfg.JWTSigningKey, tokenIssuer, tokenAudience, tokenTTL)

	router := httptransport.NewRouter(httptransport.Config{
		Ledger:           handler.New(ledgerService, log, handlerOpts...),
		Health:           healthHandler,
		Clock:            clockHandler,
		Ticks:            ticks,
		JWT:              jwtauth.NewServiceAdapter(tokens),
		ServiceKeyHashes: cfg.ServiceKeyHashes,
		Metrics:          metrics.New(),
		Logger:           log,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	if relay != nil {
		if err := relay.Stop(ctx); err != nil {
			log.Error("event relay drain incomplete", "error", err)
		}
		_ = kafkaProd.Close() //nolint:errcheck // best-effort flush on shutdown
	}
	if redisClient != nil {
		_ = redisClient.Close() //nolint:errcheck // best-effort cleanup on shutdown
	}
	if pool != nil {
		_ = pool.Close() //nolint:errcheck // best-effort cleanup on shutdown
	}

	log.Info("server stopped")
}
