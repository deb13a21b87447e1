package middleware

import (
	"net"
	"net/http"

	apperrors "github.com/kbukum/voicenote/errors"
	"github.com/kbukum/voicenote/resilience"
)

// RateLimitConfig configures the per-client rate limiting middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per key. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// Burst is the bucket size per key.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// KeyFunc extracts the rate limit key from a request. Defaults to the
	// authenticated subject, falling back to the client IP.
	KeyFunc func(*http.Request) string `yaml:"-" mapstructure:"-"`
}

// RateLimit returns middleware that applies a token bucket per key. The
// limiter is returned so callers can Sweep idle buckets.
func RateLimit(cfg RateLimitConfig) (Middleware, *resilience.KeyedRateLimiter) {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientKey
	}
	limiter := resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{
		Name:  "http",
		Rate:  cfg.RequestsPerSecond,
		Burst: cfg.Burst,
	})

	return func(next http.Handler) http.Handler {
		if cfg.RequestsPerSecond <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(cfg.KeyFunc(r)) {
				WriteError(w, r, apperrors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}, limiter
}

// ClientKey uses the authenticated subject when present, otherwise the
// remote IP.
func ClientKey(r *http.Request) string {
	if sub := Subject(r.Context()); sub != "" {
		return "sub:" + sub
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
