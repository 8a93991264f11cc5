// Package metadata resolves the client address and user agent for each
// request and stores them in the context. Forwarding headers are honored
// only when the direct peer is a configured proxy, so an internet client
// cannot spoof its way past the address-based log trail.
package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"doceo/pkg/requestcontext"
)

// MaxForwardedLength caps X-Forwarded-For and X-Real-IP values; longer
// headers are treated as absent.
const MaxForwardedLength = 500

type Config struct {
	// TrustedProxies lists the peers allowed to set forwarding headers.
	// Empty means forwarding headers are never honored.
	TrustedProxies []netip.Prefix
}

type Middleware struct {
	config *Config
}

func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Middleware{config: cfg}
}

// Handler stashes the resolved client IP and User-Agent in the request
// context for the logging middleware and handlers downstream.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) clientIP(r *http.Request) string {
	direct := remoteIP(r.RemoteAddr)
	if direct == "" {
		return "unknown"
	}
	if !m.trustedProxy(direct) {
		return direct
	}

	// The first X-Forwarded-For hop is the original client; X-Real-IP is
	// the single-value form some proxies send instead.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseForwarded(first, len(xff)); ip != "" {
			return ip
		}
		return direct
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := parseForwarded(xri, len(xri)); ip != "" {
			return ip
		}
	}
	return direct
}

func (m *Middleware) trustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseForwarded validates one forwarded hop. headerLen is the length of
// the whole header, so an oversized chain is dropped even when its first
// hop looks fine.
func parseForwarded(hop string, headerLen int) string {
	if headerLen > MaxForwardedLength {
		return ""
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(hop))
	if err != nil {
		return ""
	}
	return addr.String()
}

// remoteIP strips the port from a RemoteAddr, accepting the portless form
// some tests and proxies hand through.
func remoteIP(remoteAddr string) string {
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]")); err == nil {
		return addr.String()
	}
	return ""
}
