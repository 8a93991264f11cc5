package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	suiteAdmin = id.Principal("platform-admin")

	suiteFee     = id.Amount(500000)
	suiteWindow  = uint64(52560)
	suiteMaxDocs = uint64(10)
	suiteGenesis = id.Tick(100000)

	suiteServiceKey = "integration-service-key"
)

// SetupSuite assembles the production router over memory backends: real
// middleware, real handler, real service. Only the clock is held by the
// test so flows can cross the expiry boundary deterministically.
func SetupSuite(t *testing.T) (http.Handler, *payments.MemoryBank, *tickclock.Manual, *jwtauth.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := store.New()
	bank := payments.NewMemoryBank()
	svc := service.NewService(service.NewMemoryTx(st), st, bank, logger)
	require.NoError(t, svc.Bootstrap(context.Background(), models.Config{
		Admin:        suiteAdmin,
		StorageFee:   suiteFee,
		ExpiryWindow: suiteWindow,
		MaxDocuments: suiteMaxDocs,
	}))

	keyHash, err := secrets.Hash(suiteServiceKey)
	require.NoError(t, err)

	tokens := jwtauth.NewService("integration-signing-key", "doceo", "doceo-ledger", time.Hour)
	clock := tickclock.NewManual(suiteGenesis)

	router := httptransport.NewRouter(httptransport.Config{
		Ledger:           handler.New(svc, logger),
		Health:           health.New("integration"),
		Clock:            tickclock.NewHandler(clock, logger),
		Ticks:            clock,
		JWT:              jwtauth.NewServiceAdapter(tokens),
		ServiceKeyHashes: []string{keyHash},
		Logger:           logger,
	})

	return router, bank, clock, tokens
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func asBearer(t *testing.T, tokens *jwtauth.Service, principal id.Principal) map[string]string {
	t.Helper()
	token, err := tokens.GenerateToken(context.Background(), principal)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func serviceHeaders() map[string]string {
	return map[string]string{
		"X-Service-Key":  suiteServiceKey,
		"X-Service-Name": "integration-suite",
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func balance(t *testing.T, bank *payments.MemoryBank, account id.Principal) id.Amount {
	t.Helper()
	amount, err := bank.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return amount
}

type credentialBody struct {
	Hash         string `json:"hash"`
	Tutor        string `json:"tutor"`
	RegisteredAt uint64 `json:"registered_at"`
	Expiry       uint64 `json:"expiry"`
	Verified     bool   `json:"verified"`
	Verifier     string `json:"verifier"`
	RenewalCount uint64 `json:"renewal_count"`
}

type statusBody struct {
	Hash     string `json:"hash"`
	Verified bool   `json:"verified"`
}

type errorBody struct {
	Code    string `json:"error"`
	Message string `json:"error_description"`
}

// TestCredentialLifecycle walks one credential from funding through storage,
// verification, expiry and renewal, checking fees and ticks at each step.
func TestCredentialLifecycle(t *testing.T) {
	router, bank, clock, tokens := SetupSuite(t)

	tutor := id.Principal("tutor-lifecycle")
	bank.Credit(tutor, 2*suiteFee)

	hash := id.HashDocument([]byte("pgce-certificate-2025")).String()

	// Store at the genesis tick.
	rec := doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
		"hash":  hash,
		"title": "PGCE Secondary Mathematics",
	}, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stored credentialBody
	decode(t, rec, &stored)
	assert.Equal(t, hash, stored.Hash)
	assert.Equal(t, tutor.String(), stored.Tutor)
	assert.Equal(t, uint64(suiteGenesis), stored.RegisteredAt)
	assert.Equal(t, uint64(suiteGenesis)+suiteWindow, stored.Expiry)
	assert.False(t, stored.Verified)
	assert.Zero(t, stored.RenewalCount)

	assert.Equal(t, suiteFee, balance(t, bank, tutor))
	assert.Equal(t, suiteFee, balance(t, bank, suiteAdmin))

	// Admin verifies directly.
	rec = doJSON(t, router, http.MethodPost, "/v1/credentials/"+hash+"/verify", nil, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var verified credentialBody
	decode(t, rec, &verified)
	assert.True(t, verified.Verified)
	assert.Equal(t, suiteAdmin.String(), verified.Verifier)

	rec = doJSON(t, router, http.MethodGet, "/v1/credentials/"+hash+"/status", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	var status statusBody
	decode(t, rec, &status)
	assert.True(t, status.Verified)

	// The credential stays live through the exact expiry tick and lapses
	// one tick later.
	clock.Advance(suiteWindow)
	rec = doJSON(t, router, http.MethodGet, "/v1/credentials/"+hash+"/status", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	clock.Advance(1)
	rec = doJSON(t, router, http.MethodGet, "/v1/credentials/"+hash+"/status", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusGone, rec.Code, rec.Body.String())
	var lapsed errorBody
	decode(t, rec, &lapsed)
	assert.Equal(t, "expired", lapsed.Code)

	// The record itself stays readable after expiry.
	rec = doJSON(t, router, http.MethodGet, "/v1/credentials/"+hash, nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	var record credentialBody
	decode(t, rec, &record)
	assert.True(t, record.Verified)

	// Renewal revives the credential for another fee; expiry restarts from
	// the renewal tick and verification carries over.
	renewTick := uint64(suiteGenesis) + suiteWindow + 1
	rec = doJSON(t, router, http.MethodPost, "/v1/credentials/"+hash+"/renew", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var renewed credentialBody
	decode(t, rec, &renewed)
	assert.Equal(t, uint64(1), renewed.RenewalCount)
	assert.Equal(t, renewTick+suiteWindow, renewed.Expiry)
	assert.Equal(t, uint64(suiteGenesis), renewed.RegisteredAt)
	assert.True(t, renewed.Verified)

	assert.Equal(t, id.Amount(0), balance(t, bank, tutor))
	assert.Equal(t, 2*suiteFee, balance(t, bank, suiteAdmin))

	rec = doJSON(t, router, http.MethodGet, "/v1/credentials/"+hash+"/status", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &status)
	assert.True(t, status.Verified)
}

// TestDelegatedVerifierFlow covers the roster round trip: enrollment,
// delegated verification, removal and the denial that follows it.
func TestDelegatedVerifierFlow(t *testing.T) {
	router, bank, _, tokens := SetupSuite(t)

	tutor := id.Principal("tutor-roster")
	verifier := id.Principal("verifier-acme")
	bank.Credit(tutor, 2*suiteFee)

	first := id.HashDocument([]byte("tefl-certificate")).String()
	second := id.HashDocument([]byte("dbs-disclosure")).String()
	for _, h := range []string{first, second} {
		rec := doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
			"hash":  h,
			"title": "Background Document",
		}, asBearer(t, tokens, tutor))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	// A tutor holds no verification authority, not even over their own
	// documents.
	rec := doJSON(t, router, http.MethodPost, "/v1/credentials/"+first+"/verify", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusForbidden, rec.Code)
	var denied errorBody
	decode(t, rec, &denied)
	assert.Equal(t, "invalid_verifier", denied.Code)

	// Enroll and verify.
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/verifiers", map[string]string{
		"principal": verifier.String(),
	}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/credentials/"+first+"/verify", nil, asBearer(t, tokens, verifier))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cred credentialBody
	decode(t, rec, &cred)
	assert.Equal(t, verifier.String(), cred.Verifier)

	rec = doJSON(t, router, http.MethodGet, "/v1/verifiers/"+verifier.String(), nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":true`)

	// Removal revokes authority immediately.
	rec = doJSON(t, router, http.MethodDelete, "/v1/admin/verifiers/"+verifier.String(), nil, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/credentials/"+second+"/verify", nil, asBearer(t, tokens, verifier))
	require.Equal(t, http.StatusForbidden, rec.Code)
	decode(t, rec, &denied)
	assert.Equal(t, "invalid_verifier", denied.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/verifiers/"+verifier.String(), nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":false`)

	// Re-enrollment restores it.
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/verifiers", map[string]string{
		"principal": verifier.String(),
	}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/credentials/"+second+"/verify", nil, asBearer(t, tokens, verifier))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// TestPauseFeeAndCapFlow exercises the admin controls against live traffic:
// pausing blocks every write, a zero fee makes storage free, and the
// document cap counts all stored documents.
func TestPauseFeeAndCapFlow(t *testing.T) {
	router, bank, _, tokens := SetupSuite(t)

	tutor := id.Principal("tutor-config")
	bank.Credit(tutor, suiteFee)

	hash := id.HashDocument([]byte("first-aid-certificate")).String()

	// Pause, then watch writes bounce.
	rec := doJSON(t, router, http.MethodPut, "/v1/admin/paused", map[string]bool{"paused": true}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
		"hash":  hash,
		"title": "First Aid at Work",
	}, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var paused errorBody
	decode(t, rec, &paused)
	assert.Equal(t, "contract_paused", paused.Code)

	assert.Equal(t, suiteFee, balance(t, bank, tutor))

	rec = doJSON(t, router, http.MethodPut, "/v1/admin/paused", map[string]bool{"paused": false}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
		"hash":  hash,
		"title": "First Aid at Work",
	}, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Zero fee: the next store costs nothing.
	rec = doJSON(t, router, http.MethodPut, "/v1/admin/storage-fee", map[string]uint64{"fee": 0}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	free := id.HashDocument([]byte("safeguarding-training")).String()
	rec = doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
		"hash":  free,
		"title": "Safeguarding Training",
	}, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, id.Amount(0), balance(t, bank, tutor))

	// Cap at the current count: the next store is refused.
	rec = doJSON(t, router, http.MethodPut, "/v1/admin/max-documents", map[string]uint64{"max_documents": 2}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	blocked := id.HashDocument([]byte("one-too-many")).String()
	rec = doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
		"hash":  blocked,
		"title": "One Document Too Many",
	}, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusForbidden, rec.Code)
	var capped errorBody
	decode(t, rec, &capped)
	assert.Equal(t, "max_documents_reached", capped.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/tutors/"+tutor.String()+"/credential-count", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)

	// The configuration snapshot reflects every change.
	rec = doJSON(t, router, http.MethodGet, "/v1/config", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg struct {
		Admin        string `json:"admin"`
		Paused       bool   `json:"paused"`
		StorageFee   uint64 `json:"storage_fee"`
		MaxDocuments uint64 `json:"max_documents"`
	}
	decode(t, rec, &cfg)
	assert.Equal(t, suiteAdmin.String(), cfg.Admin)
	assert.False(t, cfg.Paused)
	assert.Zero(t, cfg.StorageFee)
	assert.Equal(t, uint64(2), cfg.MaxDocuments)
}

// TestEventFeedFlow checks that a mixed batch of operations lands in the
// internal feed in order, with gapless ids and paging by after_id.
func TestEventFeedFlow(t *testing.T) {
	router, bank, _, tokens := SetupSuite(t)

	tutor := id.Principal("tutor-events")
	verifier := id.Principal("verifier-events")
	bank.Credit(tutor, suiteFee)

	hash := id.HashDocument([]byte("event-feed-document")).String()

	rec := doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
		"hash":  hash,
		"title": "HSK Level 5",
	}, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/admin/verifiers", map[string]string{
		"principal": verifier.String(),
	}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/credentials/"+hash+"/verify", nil, asBearer(t, tokens, verifier))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/v1/admin/paused", map[string]bool{"paused": true}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPut, "/v1/admin/paused", map[string]bool{"paused": false}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/admin/storage-fee", map[string]uint64{"fee": 750000}, asBearer(t, tokens, suiteAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	// A rejected write must not reach the log.
	rec = doJSON(t, router, http.MethodPost, "/v1/credentials", map[string]string{
		"hash":  hash,
		"title": "Duplicate",
	}, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusConflict, rec.Code)

	var feed struct {
		Events []struct {
			ID      uint64 `json:"id"`
			Type    string `json:"type"`
			Payload string `json:"payload"`
			Tick    uint64 `json:"tick"`
		} `json:"events"`
	}

	rec = doJSON(t, router, http.MethodGet, "/internal/events?after_id=0&limit=100", nil, serviceHeaders())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &feed)

	wantTypes := []string{
		"credential-stored",
		"verifier-added",
		"credential-verified",
		"contract-paused",
		"contract-unpaused",
		"fee-updated",
	}
	require.Len(t, feed.Events, len(wantTypes))
	for i, event := range feed.Events {
		assert.Equal(t, uint64(i+1), event.ID, "event ids are assigned gaplessly")
		assert.Equal(t, wantTypes[i], event.Type)
		assert.Equal(t, uint64(suiteGenesis), event.Tick)
	}

	// Paging picks up exactly where the cursor left off.
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/internal/events?after_id=%d&limit=2", 3), nil, serviceHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &feed)
	require.Len(t, feed.Events, 2)
	assert.Equal(t, uint64(4), feed.Events[0].ID)
	assert.Equal(t, uint64(5), feed.Events[1].ID)
}

// TestDuplicateStoreKeepsFunds pins the refund behavior: a rejected
// duplicate store charges nothing and changes nothing.
func TestDuplicateStoreKeepsFunds(t *testing.T) {
	router, bank, _, tokens := SetupSuite(t)

	tutor := id.Principal("tutor-dup")
	bank.Credit(tutor, 3*suiteFee)

	hash := id.HashDocument([]byte("delf-b2-diploma")).String()
	body := map[string]string{"hash": hash, "title": "DELF B2"}

	rec := doJSON(t, router, http.MethodPost, "/v1/credentials", body, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/credentials", body, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusConflict, rec.Code)
	var dup errorBody
	decode(t, rec, &dup)
	assert.Equal(t, "already_stored", dup.Code)

	assert.Equal(t, 2*suiteFee, balance(t, bank, tutor))
	assert.Equal(t, suiteFee, balance(t, bank, suiteAdmin))

	rec = doJSON(t, router, http.MethodGet, "/v1/tutors/"+tutor.String()+"/credential-count", nil, asBearer(t, tokens, tutor))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}
