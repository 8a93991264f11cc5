package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultPort        = "8083"
	defaultAPIKey      = "payments-service-secret-key"
	defaultLatencyMs   = "20"
	defaultSeedBalance = "1000000"
)

type BalanceRequest struct {
	Account string `json:"account"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type TransferResponse struct {
	TransferID string `json:"transfer_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     uint64 `json:"amount"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

var (
	apiKey      = getEnv("API_KEY", defaultAPIKey)
	latencyMs   = getEnvInt("LATENCY_MS", defaultLatencyMs)
	seedBalance = getEnvUint("SEED_BALANCE", defaultSeedBalance)
)

// seededBalances contains predefined test accounts with fixed starting
// balances. These "magic" accounts let e2e tests control the mock's behavior;
// any other account starts at SEED_BALANCE on first touch.
var seededBalances = map[string]uint64{
	"rich-tutor":     100_000_000_000, // Effectively unlimited funds
	"broke-tutor":    0,               // Always fails balance checks
	"platform-admin": 0,               // Fee sink; starts empty so tests can assert collected fees
}

type bank struct {
	mu        sync.Mutex
	balances  map[string]uint64
	seen      map[string]bool
	transfers map[string]TransferResponse // by idempotency key
	nextID    uint64
}

func newBank() *bank {
	return &bank{
		balances:  make(map[string]uint64),
		seen:      make(map[string]bool),
		transfers: make(map[string]TransferResponse),
	}
}

// balanceOf seeds unknown accounts on first touch so tests never have to
// pre-fund tutors. Caller must hold the lock.
func (b *bank) balanceOf(account string) uint64 {
	if !b.seen[account] {
		b.seen[account] = true
		if fixed, ok := seededBalances[account]; ok {
			b.balances[account] = fixed
		} else {
			b.balances[account] = seedBalance
		}
	}
	return b.balances[account]
}

func main() {
	port := getEnv("PORT", defaultPort)
	b := newBank()

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/api/v1/accounts/balance", b.handleBalance)
	http.HandleFunc("/api/v1/transfers", b.handleTransfer)

	log.Printf("💰 Mock Payments Service starting on port %s", port)
	log.Printf("📝 API Key: %s", apiKey)
	log.Printf("🌱 Seed balance for new accounts: %d", seedBalance)
	log.Printf("⏱️  Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "payments-service",
		"version": "1.0.0",
	})
}

func (b *bank) handleBalance(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	log.Printf("📥 Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodPost {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorized(r) {
		sendError(w, "Invalid or missing X-API-Key header", http.StatusUnauthorized)
		return
	}

	var req BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Account == "" {
		sendError(w, "account is required", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	balance := b.balanceOf(req.Account)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(BalanceResponse{
		Account: req.Account,
		Balance: balance,
	})

	log.Printf("💵 Balance check: %s -> %d", req.Account, balance)
}

func (b *bank) handleTransfer(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	log.Printf("📥 Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodPost {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !authorized(r) {
		sendError(w, "Invalid or missing X-API-Key header", http.StatusUnauthorized)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.From == "" || req.To == "" {
		sendError(w, "from and to are required", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Replay of a processed idempotency key returns the original result
	// without moving funds again.
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if prev, ok := b.transfers[idemKey]; ok {
			log.Printf("🔁 Replayed transfer %s (idempotency key %s)", prev.TransferID, idemKey)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(prev)
			return
		}
	}

	from := b.balanceOf(req.From)
	b.balanceOf(req.To)

	if from < req.Amount {
		log.Printf("🚫 Transfer rejected: %s has %d, needs %d", req.From, from, req.Amount)
		sendError(w, "insufficient funds", http.StatusPaymentRequired)
		return
	}

	if req.From != req.To {
		b.balances[req.From] -= req.Amount
		b.balances[req.To] += req.Amount
	}

	b.nextID++
	resp := TransferResponse{
		TransferID: fmt.Sprintf("mock-transfer-%06d", b.nextID),
		From:       req.From,
		To:         req.To,
		Amount:     req.Amount,
	}
	if idemKey != "" {
		b.transfers[idemKey] = resp
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)

	log.Printf("✅ Transfer %s: %s -> %s amount %d", resp.TransferID, req.From, req.To, req.Amount)
}

func authorized(r *http.Request) bool {
	return r.Header.Get("X-API-Key") == apiKey
}

func sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
	log.Printf("❌ Error response: %d - %s", code, message)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}

func getEnvUint(key, defaultValue string) uint64 {
	value := getEnv(key, defaultValue)
	uintValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		log.Printf("⚠️  Invalid unsigned value for %s, using default: %s", key, defaultValue)
		uintValue, _ = strconv.ParseUint(defaultValue, 10, 64)
	}
	return uintValue
}
