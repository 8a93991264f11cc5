package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doceo/pkg/requestcontext"
)

func resolve(t *testing.T, remoteAddr string, headers map[string]string, proxies ...string) (ip, ua string) {
	t.Helper()

	var prefixes []netip.Prefix
	for _, cidr := range proxies {
		prefixes = append(prefixes, netip.MustParsePrefix(cidr))
	}
	mw := NewMiddleware(&Config{TrustedProxies: prefixes})

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return ip, ua
}

func TestClientIPIgnoresForwardingFromUntrustedPeer(t *testing.T) {
	ip, ua := resolve(t, "192.168.1.1:12345", map[string]string{
		"X-Forwarded-For": "203.0.113.1",
		"User-Agent":      "curl/7.64.1",
	})
	assert.Equal(t, "192.168.1.1", ip)
	assert.Equal(t, "curl/7.64.1", ua)
}

func TestClientIPUsesFirstForwardedHop(t *testing.T) {
	ip, _ := resolve(t, "10.0.0.1:12345", map[string]string{
		"X-Forwarded-For": "203.0.113.1, 10.0.0.7, 10.0.0.1",
	}, "10.0.0.0/8")
	assert.Equal(t, "203.0.113.1", ip)
}

func TestClientIPFallsBackOnGarbageForwardedHeader(t *testing.T) {
	ip, _ := resolve(t, "10.0.0.1:12345", map[string]string{
		"X-Forwarded-For": "not-an-address",
	}, "10.0.0.0/8")
	assert.Equal(t, "10.0.0.1", ip)
}

func TestClientIPDropsOversizedForwardedChain(t *testing.T) {
	chain := "203.0.113.1," + strings.Repeat("10.0.0.7,", MaxForwardedLength/9+1)
	require.Greater(t, len(chain), MaxForwardedLength)

	ip, _ := resolve(t, "10.0.0.1:12345", map[string]string{
		"X-Forwarded-For": chain,
	}, "10.0.0.0/8")
	assert.Equal(t, "10.0.0.1", ip)
}

func TestClientIPHonorsRealIPFromTrustedProxy(t *testing.T) {
	ip, _ := resolve(t, "10.0.0.1:12345", map[string]string{
		"X-Real-IP": "203.0.113.9",
	}, "10.0.0.0/8")
	assert.Equal(t, "203.0.113.9", ip)
}

func TestClientIPWithoutHeaders(t *testing.T) {
	ip, ua := resolve(t, "192.168.1.100:54321", nil)
	assert.Equal(t, "192.168.1.100", ip)
	assert.Equal(t, "", ua)
}

func TestRemoteIPForms(t *testing.T) {
	for in, want := range map[string]string{
		"127.0.0.1:8080":     "127.0.0.1",
		"[2001:db8::1]:8080": "2001:db8::1",
		"10.0.0.1":           "10.0.0.1",
		"::1":                "::1",
		"":                   "",
		"garbage":            "",
	} {
		assert.Equal(t, want, remoteIP(in), "remoteIP(%q)", in)
	}
}

func TestClientMetadataContextDefaults(t *testing.T) {
	assert.Equal(t, "", requestcontext.ClientIP(context.Background()))
	assert.Equal(t, "", requestcontext.UserAgent(context.Background()))

	ctx := requestcontext.WithClientMetadata(context.Background(), "192.168.1.1", "Mozilla/5.0")
	assert.Equal(t, "192.168.1.1", requestcontext.ClientIP(ctx))
	assert.Equal(t, "Mozilla/5.0", requestcontext.UserAgent(ctx))
}
