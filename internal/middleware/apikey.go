package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// publicPaths stay reachable without a key so probes and scrapers work.
var publicPaths = map[string]bool{
	"/api/health": true,
	"/metrics":    true,
}

// APIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		want := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			switch got := r.Header.Get("X-API-Key"); {
			case got == "":
				writeJSONError(w, http.StatusUnauthorized, "missing API key")
			case subtle.ConstantTimeCompare([]byte(got), want) != 1:
				writeJSONError(w, http.StatusUnauthorized, "invalid API key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
