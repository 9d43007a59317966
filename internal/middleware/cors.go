package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS allows credentialed requests so the access_token cookie is sent by
// browsers. A wildcard origin is reflected per request because browsers
// reject "*" together with credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length", requestIDHeader},
		MaxAge:           3600,
		AllowCredentials: true,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.New(opts).Handler
}
