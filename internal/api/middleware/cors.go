package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// corsPreflightMaxAge is how long browsers may cache a preflight, in seconds.
const corsPreflightMaxAge = 300

// CORS lets the studio frontend call the API from another origin. Downloads
// are served with Content-Disposition and support ranges, and rate-limited
// routes answer with Retry-After, so those headers are exposed to scripts.
// An empty origin list allows any origin without credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(corsOptions(allowedOrigins))
}

func corsOptions(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	withCredentials := true
	for _, o := range allowedOrigins {
		if o == "*" {
			withCredentials = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Range"},
		ExposedHeaders: []string{
			"Content-Length", "Content-Disposition", "Content-Range", "Accept-Ranges", "Retry-After",
		},
		AllowCredentials: withCredentials,
		MaxAge:           corsPreflightMaxAge,
	}
}
