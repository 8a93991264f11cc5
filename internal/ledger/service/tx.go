package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"doceo/internal/ledger/store"
	dErrors "doceo/pkg/domain-errors"
)

// Contention on the single-writer gate shows up here before it shows up
// as request latency.
var (
	writerLockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "doceo_ledger_writer_lock_wait_seconds",
		Help:    "Time spent waiting to acquire the ledger writer lock",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	writerLockAcquisitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "doceo_ledger_writer_lock_acquisitions_total",
		Help: "Total number of ledger writer lock acquisitions",
	})
)

// StoreTx is the ledger's single-writer boundary. Every mutating operation
// runs inside RunInTx; implementations guarantee that at most one mutation
// is in flight at a time and that a returned error leaves no partial state.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(s store.Store) error) error
}

// defaultTxTimeout bounds how long a mutation may hold the writer lock.
const defaultTxTimeout = 5 * time.Second

// memoryTx serializes mutations on the in-memory store with a single mutex.
// The store itself is never rolled back, so transaction functions must
// finish all precondition checks before the first write.
type memoryTx struct {
	mu      sync.Mutex
	store   store.Store
	timeout time.Duration
}

// NewMemoryTx wraps an in-memory store in a mutex-serialized transaction
// boundary.
func NewMemoryTx(s store.Store) StoreTx {
	return &memoryTx{store: s}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(s store.Store) error) error {
	ctx, cancel, err := t.bound(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	wait := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	writerLockWaitDuration.Observe(time.Since(wait).Seconds())
	writerLockAcquisitions.Inc()

	// The queue ahead of us may have outlived the deadline.
	if ctx.Err() != nil {
		return abort(ctx.Err())
	}
	return fn(t.store)
}

// bound rejects contexts that are already dead and attaches the default
// deadline when the caller brought none.
func (t *memoryTx) bound(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, abort(err)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}, nil
	}
	timeout := t.timeout
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	boundCtx, cancel := context.WithTimeout(ctx, timeout)
	return boundCtx, cancel, nil
}

func abort(cause error) error {
	return dErrors.Wrap(cause, dErrors.CodeTimeout, "transaction aborted: context cancelled")
}
