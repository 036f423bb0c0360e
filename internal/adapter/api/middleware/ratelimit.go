package middleware

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/V4T54L/hubformat/internal/adapter/metrics"
)

// RateLimit rejects requests beyond a token bucket of rps and burst with 429.
func RateLimit(rps float64, burst int, m *metrics.ConvertMetrics, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				m.EventsTotal.WithLabelValues(metrics.StatusErrorLimited).Inc()
				logger.Debug("rate limit exceeded",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.String("remote_addr", r.RemoteAddr))
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
