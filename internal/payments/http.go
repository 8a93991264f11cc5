package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"doceo/internal/ledger/tracer"
	id "doceo/pkg/domain"
	dErrors "doceo/pkg/domain-errors"
	"doceo/pkg/platform/circuit"
)

// HTTPChannel implements Channel by calling the platform payments service.
// Balance reads are retried with exponential backoff; transfers are sent
// exactly once with an idempotency key so the payments service can absorb
// network-level duplicates itself.
type HTTPChannel struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuit.Breaker
	tracer     tracer.Tracer
	logger     *slog.Logger

	maxRetries uint64
}

var _ Channel = (*HTTPChannel)(nil)

// HTTPChannelOption configures the HTTPChannel.
type HTTPChannelOption func(*HTTPChannel)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) HTTPChannelOption {
	return func(c *HTTPChannel) {
		c.httpClient = client
	}
}

// WithMaxRetries sets the retry budget for balance reads.
func WithMaxRetries(n uint64) HTTPChannelOption {
	return func(c *HTTPChannel) {
		c.maxRetries = n
	}
}

// WithTracer sets the tracer for outbound payment calls.
func WithTracer(t tracer.Tracer) HTTPChannelOption {
	return func(c *HTTPChannel) {
		c.tracer = t
	}
}

// NewHTTPChannel creates an HTTP-based payments channel.
func NewHTTPChannel(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger, opts ...HTTPChannelOption) *HTTPChannel {
	c := &HTTPChannel{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker:    circuit.New("payments"),
		tracer:     tracer.NewNoop(),
		logger:     logger,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// balanceRequest represents the request body for balance lookup.
type balanceRequest struct {
	Account string `json:"account"`
}

// balanceResponse represents the response from the payments service.
type balanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// transferRequest represents the request body for a transfer.
type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// transferResponse represents a completed transfer.
type transferResponse struct {
	TransferID string `json:"transfer_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     uint64 `json:"amount"`
}

// errorResponse represents an error response from the payments service.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// BalanceOf queries the available balance for an account. Transient failures
// are retried; when the circuit is open only a single probe attempt is made.
func (c *HTTPChannel) BalanceOf(ctx context.Context, account id.Principal) (balance id.Amount, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanBalanceOf,
		tracer.String(tracer.AttrAccount, account.String()),
	)
	defer func() { span.End(err) }()

	attempt := func() error {
		resp, err := c.post(ctx, "/api/v1/accounts/balance", balanceRequest{Account: account.String()}, "")
		if err != nil {
			return err
		}

		var body balanceResponse
		if err := json.Unmarshal(resp, &body); err != nil {
			return backoff.Permanent(dErrors.Wrap(err, dErrors.CodeInternal, "payments balance response malformed"))
		}
		balance = id.Amount(body.Balance)
		return nil
	}

	retries := c.maxRetries
	if c.breaker.IsOpen() {
		retries = 0
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	err = backoff.Retry(attempt, bo)
	c.record(ctx, err)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Transfer moves amount from one account to another. The payments service
// treats the generated idempotency key as the dedupe boundary.
func (c *HTTPChannel) Transfer(ctx context.Context, from, to id.Principal, amount id.Amount) (err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanTransfer,
		tracer.String(tracer.AttrAccount, from.String()),
		tracer.Uint64(tracer.AttrAmount, uint64(amount)),
	)
	defer func() { span.End(err) }()

	resp, err := c.post(ctx, "/api/v1/transfers", transferRequest{
		From:   from.String(),
		To:     to.String(),
		Amount: uint64(amount),
	}, uuid.NewString())
	c.record(ctx, err)
	if err != nil {
		return unwrapPermanent(err)
	}

	var body transferResponse
	if err := json.Unmarshal(resp, &body); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "payments transfer response malformed")
	}
	return nil
}

// post sends a JSON request and returns the response body for 200 responses.
// Non-retryable failures are wrapped in backoff.Permanent.
func (c *HTTPChannel) post(ctx context.Context, path string, payload any, idempotencyKey string) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, backoff.Permanent(dErrors.Wrap(err, dErrors.CodeInternal, "marshal payments request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, backoff.Permanent(dErrors.Wrap(err, dErrors.CodeInternal, "create payments request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, backoff.Permanent(dErrors.Wrap(err, dErrors.CodeTimeout, "payments request timeout"))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payments service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read payments response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusPaymentRequired:
		return nil, backoff.Permanent(ErrInsufficientFunds)
	case http.StatusUnauthorized:
		return nil, backoff.Permanent(dErrors.New(dErrors.CodeInternal, "payments authentication failed"))
	case http.StatusBadRequest:
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return nil, backoff.Permanent(dErrors.New(dErrors.CodeInvalidInput, errResp.Message))
		}
		return nil, backoff.Permanent(dErrors.New(dErrors.CodeInvalidInput, "payments rejected request"))
	case http.StatusServiceUnavailable:
		return nil, dErrors.New(dErrors.CodeUnavailable, "payments service unavailable")
	default:
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("payments unexpected status: %d", resp.StatusCode))
	}
}

// record feeds the circuit breaker and logs state transitions. Semantic
// rejections (insufficient funds, bad request) mean the service is healthy
// and count as successes; only reachability failures trip the circuit.
func (c *HTTPChannel) record(ctx context.Context, err error) {
	if err != nil && isInfrastructureFailure(err) {
		if _, change := c.breaker.RecordFailure(); change.Opened && c.logger != nil {
			c.logger.ErrorContext(ctx, "payments circuit opened",
				"circuit", c.breaker.Name(),
				"error", err,
			)
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed && c.logger != nil {
		c.logger.InfoContext(ctx, "payments circuit closed", "circuit", c.breaker.Name())
	}
}

func isInfrastructureFailure(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnavailable) || dErrors.HasCode(err, dErrors.CodeTimeout)
}

// unwrapPermanent strips the backoff marker so callers see the cause.
func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
