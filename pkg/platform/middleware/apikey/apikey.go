// Package apikey authenticates sibling services on internal endpoints.
// Services present a static key in X-Service-Key plus their name in
// X-Service-Name; the ledger holds bcrypt hashes of issued keys, never the
// keys themselves.
package apikey

import (
	"log/slog"
	"net/http"

	"doceo/pkg/platform/validation"
	"doceo/pkg/requestcontext"
	"doceo/pkg/secrets"
)

// RequireServiceKey returns middleware that matches the presented key against
// the configured hashes. An empty hash list disables all internal endpoints
// rather than failing open.
func RequireServiceKey(keyHashes []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := r.Header.Get("X-Service-Key")
			name := r.Header.Get("X-Service-Name")

			if key == "" || !matchesAny(key, keyHashes) {
				logger.WarnContext(ctx, "service key rejected",
					"service", name,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthenticated","error_description":"service key required"}`))
				return
			}

			if name == "" {
				name = "unknown"
			}
			if len(name) > validation.MaxServiceNameLength {
				name = name[:validation.MaxServiceNameLength]
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithService(ctx, name)))
		})
	}
}

func matchesAny(key string, hashes []string) bool {
	for _, h := range hashes {
		if secrets.Verify(key, h) == nil {
			return true
		}
	}
	return false
}
