package api

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

var allowedHeaders = []string{
	"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version", "Content-Length", "Content-MD5",
	"Content-Type", "Date", "X-Api-Version", "Authorization",
}

// corsHandler allows any origin when origins is empty or contains "*". A concrete
// allow-list is echoed back per request and permits credentials.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: allowedHeaders,
		MaxAge:         600,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return cors.Handler(opts)
}

// preflight answers a bare OPTIONS that carries no CORS request headers.
func preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, OPTIONS")
	w.WriteHeader(http.StatusOK)
}
