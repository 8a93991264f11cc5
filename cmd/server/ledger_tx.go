package main

import (
	"context"
	"database/sql"
	"time"

	"doceo/internal/ledger/store"
	dErrors "doceo/pkg/domain-errors"
)

const defaultLedgerTxTimeout = 5 * time.Second

// writerLockKey is the advisory lock every mutating transaction takes before
// touching ledger state. Postgres releases it at commit or rollback, so at
// most one writer is in flight at a time even across replicas.
const writerLockKey = 474223

// ledgerPostgresTx runs ledger mutations inside a database transaction
// serialized by a transaction-scoped advisory lock, giving the service the
// same single-writer guarantee the in-memory boundary provides.
type ledgerPostgresTx struct {
	db      *sql.DB
	cache   *store.CachedStore
	timeout time.Duration
}

// newLedgerPostgresTx wraps db in the ledger's transaction boundary. cache
// may be nil when no read cache is configured.
func newLedgerPostgresTx(db *sql.DB, cache *store.CachedStore) *ledgerPostgresTx {
	return &ledgerPostgresTx{db: db, cache: cache}
}

func (t *ledgerPostgresTx) RunInTx(ctx context.Context, fn func(s store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLedgerTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, writerLockKey); err != nil {
		return err
	}

	if err := fn(store.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// The mutation ran against the transaction-bound store, behind the
	// cache's back. Orphan every cached entry so the next read refills.
	if t.cache != nil {
		t.cache.InvalidateAll(ctx)
	}
	return nil
}
