package request

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doceo/pkg/requestcontext"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDKeepsUsableHeader(t *testing.T) {
	for _, id := range []string{
		"my-request-123",
		"trace.span_1234",
		"a",
		strings.Repeat("a", MaxRequestIDLength),
	} {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.RequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", id)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, id, seen, "context ID for %q", id)
		assert.Equal(t, id, w.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDReplacesUnusableHeader(t *testing.T) {
	for name, id := range map[string]string{
		"empty":     "",
		"oversized": strings.Repeat("a", MaxRequestIDLength+1),
		"space":     "request id",
		"newline":   "valid\ninjected-log-line",
		"quote":     `request"id`,
		"brackets":  "request<id>",
		"semicolon": "request;id",
		"null byte": "request\x00id",
	} {
		t.Run(name, func(t *testing.T) {
			handler := RequestID(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if id != "" {
				req.Header.Set("X-Request-ID", id)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			assert.NotEqual(t, id, got)
			assert.Len(t, got, 36, "replacement should be a generated UUID")
		})
	}
}

func TestUsableRequestID(t *testing.T) {
	assert.True(t, usableRequestID("ABC-123"))
	assert.True(t, usableRequestID(strings.Repeat("x", MaxRequestIDLength)))
	assert.False(t, usableRequestID(""))
	assert.False(t, usableRequestID(strings.Repeat("x", MaxRequestIDLength+1)))
	assert.False(t, usableRequestID("has\ttab"))
}

func TestLoggerQuietsHealthyProbes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logger(logger)(okHandler())
	for _, path := range []string{"/healthz", "/readyz", "/health/live", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Empty(t, buf.String(), "successful probes should not be logged")

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/config", nil))
	assert.Contains(t, buf.String(), "http request")
	assert.Contains(t, buf.String(), "path=/v1/config")
}

func TestLoggerReportsFailingProbe(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	Logger(logger)(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Contains(t, buf.String(), "status=500")
}

func TestRecoveryConvertsPanicTo500(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		Recovery(logger)(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/credentials", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestContentTypeJSON(t *testing.T) {
	handler := ContentTypeJSON(okHandler())

	t.Run("rejects non-JSON mutation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/credentials", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_content_type")
	})

	t.Run("accepts JSON with charset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/admin/paused", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/credentials", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ignores reads", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/config", nil)
		req.Header.Set("Content-Type", "text/html")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
