package middleware

import (
	"net/http"
)

// SecurityHeaders adds security headers to all responses
func SecurityHeaders(cspEnabled, hstsEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Content Security Policy. This service only serves JSON, so
			// everything except self is locked down.
			if cspEnabled {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; "+
						"img-src 'self' data:; "+
						"frame-ancestors 'none'; "+
						"base-uri 'self'")
			}

			// HTTP Strict Transport Security
			if hstsEnabled {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			// Remove server header
			w.Header().Set("X-Powered-By", "")
			w.Header().Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}
