package middleware

import "net/http"

// DefaultJSONBodyLimit caps JSON request bodies.
const DefaultJSONBodyLimit = 1 << 20

// MaxBodySize limits the request body to the given number of bytes.
// Upload routes use their own, larger limit.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
