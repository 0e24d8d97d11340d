package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the configured origins. A single "*" allows any origin; an
// empty list grants none.
func CORS(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqOrigin := r.Header.Get("Origin")
			if reqOrigin != "" && isAllowed(reqOrigin, origins) {
				w.Header().Set("Access-Control-Allow-Origin", reqOrigin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAllowed(reqOrigin string, configured []string) bool {
	for _, o := range configured {
		o = strings.TrimSpace(o)
		if o == "*" || strings.EqualFold(o, reqOrigin) {
			return true
		}
	}
	return false
}
