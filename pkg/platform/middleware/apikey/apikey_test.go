package apikey

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doceo/pkg/requestcontext"
	"doceo/pkg/secrets"
)

func TestRequireServiceKey(t *testing.T) {
	hash, err := secrets.Hash("registry-key")
	require.NoError(t, err)
	otherHash, err := secrets.Hash("sessions-key")
	require.NoError(t, err)

	var capturedService string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedService = requestcontext.Service(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	mw := RequireServiceKey([]string{hash, otherHash}, slog.Default())

	serve := func(key, name string) *httptest.ResponseRecorder {
		capturedService = ""
		req := httptest.NewRequest(http.MethodGet, "/internal/events", nil)
		if key != "" {
			req.Header.Set("X-Service-Key", key)
		}
		if name != "" {
			req.Header.Set("X-Service-Name", name)
		}
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, req)
		return w
	}

	t.Run("accepts any issued key", func(t *testing.T) {
		w := serve("registry-key", "tutor-registry")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "tutor-registry", capturedService)

		w = serve("sessions-key", "session-tracking")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "session-tracking", capturedService)
	})

	t.Run("defaults missing service name", func(t *testing.T) {
		w := serve("registry-key", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "unknown", capturedService)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		w := serve("stolen-key", "tutor-registry")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, capturedService)
	})

	t.Run("rejects missing key", func(t *testing.T) {
		w := serve("", "tutor-registry")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("fails closed with no configured hashes", func(t *testing.T) {
		closedMW := RequireServiceKey(nil, slog.Default())
		req := httptest.NewRequest(http.MethodGet, "/internal/events", nil)
		req.Header.Set("X-Service-Key", "registry-key")
		w := httptest.NewRecorder()
		closedMW(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
