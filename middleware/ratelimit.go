package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phillip/cleanup-sponsorship-go/metrics"
	"github.com/phillip/cleanup-sponsorship-go/ratelimit"
)

// RateLimit throttles per authenticated user within scope. A limiter
// failure lets the request through; Redis being down must not stop sponsors.
func RateLimit(limiter ratelimit.Limiter, scope string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.GetString("user_id")
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", slog.String("scope", scope), slog.String("error", err.Error()))
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitHits.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
