package middleware

import (
	"net/http"
	"time"
)

// Options configures the middleware stack.
type Options struct {
	APIKey       string
	RateLimiter  *RateLimiter
	MaxBodyBytes int64
	Timeout      time.Duration
}

// Chain wraps the handler with the full middleware stack.
// Order: CORS → RequestID → Logging → Metrics → RateLimit → APIKey → MaxBytes → Timeout → mux
func Chain(handler http.Handler, opts Options) http.Handler {
	if opts.RateLimiter == nil {
		opts.RateLimiter = NewRateLimiter(10, time.Minute)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 * 1024
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 65 * time.Second
	}

	h := handler
	h = http.TimeoutHandler(h, opts.Timeout, `{"error":"request timeout"}`)
	h = MaxBytes(opts.MaxBodyBytes)(h)
	h = APIKey(opts.APIKey)(h)
	h = RateLimit(opts.RateLimiter)(h)
	h = Metrics(h)
	h = Logging(h)
	h = RequestID(h)
	h = CORS(h)
	return h
}
