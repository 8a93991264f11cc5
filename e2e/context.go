package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"doceo/internal/jwtauth"
	id "doceo/pkg/domain"
)

const (
	tokenIssuer   = "doceo"
	tokenAudience = "doceo-ledger"

	defaultSigningKey = "dev-secret-key-change-in-production"
	defaultServiceKey = "e2e-service-key"
)

// TestContext holds state between test steps. Without BASE_URL each scenario
// boots the full HTTP stack in-process, backed by memory stores and a manual
// clock, so the suite runs self-contained. Pointing BASE_URL at a deployed
// ledger runs the same features over the network; the deployment must mint
// tokens with the same signing key, and balance steps are unavailable there.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	ServiceKey string

	signingKey string
	tokens     *jwtauth.Service
	minted     map[string]string
	local      *localServer
}

// NewTestContext creates a new test context. Reset must run before the first
// scenario to bring up the server side.
func NewTestContext() *TestContext {
	signingKey := envOr("JWT_SIGNING_KEY", defaultSigningKey)
	return &TestContext{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		ServiceKey: envOr("SERVICE_KEY", defaultServiceKey),
		signingKey: signingKey,
		tokens:     jwtauth.NewService(signingKey, tokenIssuer, tokenAudience, time.Hour),
		minted:     make(map[string]string),
	}
}

// Reset returns the context to a clean slate before a scenario. In embedded
// mode the previous server is torn down and a fresh one bootstrapped, so
// scenarios cannot observe each other's state.
func (tc *TestContext) Reset() error {
	tc.LastResponse = nil
	tc.LastResponseBody = nil

	if base := os.Getenv("BASE_URL"); base != "" {
		tc.BaseURL = base
		return nil
	}

	if tc.local != nil {
		tc.local.Close()
	}
	local, err := startLocalServer(tc.signingKey, tc.ServiceKey)
	if err != nil {
		return fmt.Errorf("failed to start embedded ledger: %w", err)
	}
	tc.local = local
	tc.BaseURL = local.URL()
	return nil
}

// Close tears down the embedded server, if any.
func (tc *TestContext) Close() {
	if tc.local != nil {
		tc.local.Close()
		tc.local = nil
	}
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// POST makes an unauthenticated POST request and stores the response.
func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

// GET makes a GET request with optional headers and stores the response.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

// PostAs makes a POST request carrying a bearer token for the principal.
func (tc *TestContext) PostAs(principal, path string, body any) error {
	headers, err := tc.bearer(principal)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, body, headers)
}

// PutAs makes a PUT request carrying a bearer token for the principal.
func (tc *TestContext) PutAs(principal, path string, body any) error {
	headers, err := tc.bearer(principal)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPut, path, body, headers)
}

// DeleteAs makes a DELETE request carrying a bearer token for the principal.
func (tc *TestContext) DeleteAs(principal, path string) error {
	headers, err := tc.bearer(principal)
	if err != nil {
		return err
	}
	return tc.do(http.MethodDelete, path, nil, headers)
}

// GetAs makes a GET request carrying a bearer token for the principal.
func (tc *TestContext) GetAs(principal, path string) error {
	headers, err := tc.bearer(principal)
	if err != nil {
		return err
	}
	return tc.do(http.MethodGet, path, nil, headers)
}

// GetInternal makes a GET request against the service-to-service API.
func (tc *TestContext) GetInternal(path string) error {
	return tc.do(http.MethodGet, path, nil, tc.serviceHeaders())
}

// PostInternal makes a POST request against the service-to-service API.
func (tc *TestContext) PostInternal(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.serviceHeaders())
}

// bearer returns an Authorization header for the principal, minting and
// caching a token on first use. Tokens stay valid across scenario resets
// because the signing key never changes within a run.
func (tc *TestContext) bearer(principal string) (map[string]string, error) {
	token, ok := tc.minted[principal]
	if !ok {
		p, err := id.ParsePrincipal(principal)
		if err != nil {
			return nil, fmt.Errorf("invalid principal %q: %w", principal, err)
		}
		token, err = tc.tokens.GenerateToken(context.Background(), p)
		if err != nil {
			return nil, fmt.Errorf("failed to mint token for %q: %w", principal, err)
		}
		tc.minted[principal] = token
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

func (tc *TestContext) serviceHeaders() map[string]string {
	return map[string]string{
		"X-Service-Key":  tc.ServiceKey,
		"X-Service-Name": "e2e-suite",
	}
}

// CreditBalance seeds a payment account. Only the embedded bank can be
// seeded from here; external runs manage balances in their payment service.
func (tc *TestContext) CreditBalance(principal string, amount uint64) error {
	if tc.local == nil {
		return fmt.Errorf("balance seeding requires the embedded server; unset BASE_URL")
	}
	p, err := id.ParsePrincipal(principal)
	if err != nil {
		return err
	}
	tc.local.bank.Credit(p, id.Amount(amount))
	return nil
}

// Balance reads a payment account balance from the embedded bank.
func (tc *TestContext) Balance(principal string) (uint64, error) {
	if tc.local == nil {
		return 0, fmt.Errorf("balance checks require the embedded server; unset BASE_URL")
	}
	p, err := id.ParsePrincipal(principal)
	if err != nil {
		return 0, err
	}
	balance, err := tc.local.bank.BalanceOf(context.Background(), p)
	if err != nil {
		return 0, err
	}
	return uint64(balance), nil
}

// GetResponseField extracts a field from the JSON response. Numbers come
// back as json.Number so steps can compare them exactly as written.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	data, err := tc.responseObject()
	if err != nil {
		return nil, err
	}

	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response: %s", field, tc.LastResponseBody)
	}
	return value, nil
}

func (tc *TestContext) responseObject() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(tc.LastResponseBody))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return data, nil
}

// ResponseContains checks if the response body contains a field or text.
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}

	data, err := tc.responseObject()
	if err == nil {
		if _, ok := data[text]; ok {
			return true
		}
	}
	return false
}

// Getter methods for step package interfaces

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
