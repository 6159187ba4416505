package middleware

import (
	"log/slog"
	"net/http"

	"github.com/quillworks/campaign-service/internal/platform/ratelimit"
)

// RateLimitMiddleware throttles mutating requests per authenticated user.
// The limiter's counters live in a shared store, so limits hold across
// horizontally scaled instances. A limiter outage fails open.
func RateLimitMiddleware(limiter ratelimit.Limiter, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if authUser, ok := UserFromContext(r.Context()); ok {
				key = authUser.ID
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WarnContext(r.Context(), "Rate limiter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.WarnContext(r.Context(), "Rate limit exceeded", "key", key)
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
