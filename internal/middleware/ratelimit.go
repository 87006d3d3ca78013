// File: internal/middleware/ratelimit.go
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jacklvd/NEU-scheduler/internal/metrics"
	"github.com/jacklvd/NEU-scheduler/internal/ratelimit"
)

// RateLimitMiddleware limits requests per client IP. Forwarding headers count
// only when the peer is one of proxies.
func RateLimitMiddleware(limiter *ratelimit.MemoryRateLimiter, proxies ratelimit.TrustedProxies, name string, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := proxies.ClientIP(r)
			allowed, info := limiter.Allow(clientIP)

			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))

			if !allowed {
				logger.Warn("request rate limited", "limiter", name, "client_ip", clientIP, "banned", info.Banned)
				metrics.RateLimitedTotal.WithLabelValues(name).Inc()

				if info.RetryAfter > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%.0f", info.RetryAfter.Seconds()))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error":      "Too many requests. Please try again later.",
					"retryAfter": int(info.RetryAfter.Seconds()),
				})
				return
			}

			ctx := context.WithValue(r.Context(), ClientIPKey, clientIP)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
