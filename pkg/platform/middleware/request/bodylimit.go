package request

import "net/http"

// BodyLimit caps request body size via http.MaxBytesReader, which makes
// oversized reads fail with 413 and closes the connection. Mount it before
// anything that decodes the body.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
