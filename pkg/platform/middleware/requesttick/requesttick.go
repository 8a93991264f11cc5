// Package requesttick provides middleware and utilities for request-scoped
// ledger time. All operations within a single HTTP request observe the same
// tick, so a credential cannot be unexpired at the precondition check and
// expired by the write.
package requesttick

import (
	"context"
	"net/http"

	id "doceo/pkg/domain"
)

type contextKeyRequestTick struct{}

// Source yields the current ledger tick. The ledger only ever reads it;
// advancing the clock belongs to the platform.
type Source interface {
	Current() id.Tick
}

// Middleware captures the tick at the start of the request and stores it in
// the context for consistent reads throughout the request.
func Middleware(src Source) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithTick(r.Context(), src.Current())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Now retrieves the request-scoped tick from context. Handlers always run
// behind Middleware; outside HTTP (workers, tests) inject with WithTick.
// Falls back to tick zero when unset.
func Now(ctx context.Context) id.Tick {
	if t, ok := ctx.Value(contextKeyRequestTick{}).(id.Tick); ok {
		return t
	}
	return 0
}

// WithTick injects a specific tick into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Batch jobs that need one consistent tick across an operation
func WithTick(ctx context.Context, t id.Tick) context.Context {
	return context.WithValue(ctx, contextKeyRequestTick{}, t)
}
