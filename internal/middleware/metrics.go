package middleware

import (
	"net/http"
	"strconv"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/metrics"
)

var knownPaths = map[string]bool{
	"/api/augment":      true,
	"/api/preprocess":   true,
	"/api/fetch_sample": true,
	"/api/datasets":     true,
	"/api/health":       true,
	"/metrics":          true,
}

// Metrics records request count by method, path, and status code. Paths
// outside the API collapse to "other" to keep label cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.RequestsTotal.WithLabelValues(r.Method, routeLabel(r.URL.Path), strconv.Itoa(sw.status)).Inc()
	})
}

func routeLabel(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}
