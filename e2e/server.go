package e2e

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"time"

	"doceo/internal/jwtauth"
	"doceo/internal/ledger/handler"
	"doceo/internal/ledger/models"
	"doceo/internal/ledger/service"
	"doceo/internal/ledger/store"
	"doceo/internal/payments"
	"doceo/internal/platform/health"
	"doceo/internal/platform/tickclock"
	httptransport "doceo/internal/transport/http"
	id "doceo/pkg/domain"
	"doceo/pkg/secrets"
)

const (
	localAdmin        = id.Principal("platform-admin")
	localStorageFee   = id.Amount(500000)
	localExpiryWindow = uint64(52560)
	localMaxDocuments = uint64(10)
	localGenesisTick  = id.Tick(100000)
)

// localServer is the in-process deployment the suite runs against when no
// BASE_URL is given: memory store, memory bank, manual clock, and the same
// router production mounts. The metrics structs are left out because their
// collectors register process-wide and a fresh server boots every scenario.
type localServer struct {
	server *httptest.Server
	bank   *payments.MemoryBank
	clock  *tickclock.Manual
}

func startLocalServer(signingKey, serviceKey string) (*localServer, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := store.New()
	bank := payments.NewMemoryBank()
	svc := service.NewService(service.NewMemoryTx(st), st, bank, logger)
	if err := svc.Bootstrap(context.Background(), models.Config{
		Admin:        localAdmin,
		StorageFee:   localStorageFee,
		ExpiryWindow: localExpiryWindow,
		MaxDocuments: localMaxDocuments,
	}); err != nil {
		return nil, err
	}

	keyHash, err := secrets.Hash(serviceKey)
	if err != nil {
		return nil, err
	}

	tokens := jwtauth.NewService(signingKey, tokenIssuer, tokenAudience, time.Hour)
	clock := tickclock.NewManual(localGenesisTick)
	router := httptransport.NewRouter(httptransport.Config{
		Ledger:           handler.New(svc, logger),
		Health:           health.New("e2e"),
		Clock:            tickclock.NewHandler(clock, logger),
		Ticks:            clock,
		JWT:              jwtauth.NewServiceAdapter(tokens),
		ServiceKeyHashes: []string{keyHash},
		Logger:           logger,
	})

	return &localServer{
		server: httptest.NewServer(router),
		bank:   bank,
		clock:  clock,
	}, nil
}

func (s *localServer) URL() string { return s.server.URL }

func (s *localServer) Close() { s.server.Close() }
