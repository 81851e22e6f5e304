package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token-bucket limiter keyed by client IP. Each key may
// burst up to limit requests and refills at limit per window.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     int
	window    time.Duration
	lastSweep time.Time
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows limit requests per key within window. A
// non-positive limit disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Allow reports whether key is within its limit and spends a token if so.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweep(now)

	v, ok := rl.visitors[key]
	if !ok {
		every := rl.window / time.Duration(rl.limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), rl.limit)}
		rl.visitors[key] = v
	}
	v.seen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops keys idle for a full window; their buckets would be full
// again anyway.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for key, v := range rl.visitors {
		if now.Sub(v.seen) >= rl.window {
			delete(rl.visitors, key)
		}
	}
	rl.lastSweep = now
}

// RateLimit returns HTTP 429 when the per-IP limit is exceeded. /metrics is
// not counted so scrapes cannot starve API callers.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/metrics" && !rl.Allow(clientIP(r)) {
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
