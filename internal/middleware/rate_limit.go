package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/internal/metrics"
	"github.com/zubairashfaque/FuturNod-Agents/internal/ratelimit"
)

// RateLimit limits an operation per authenticated user. It must run after
// AuthMiddleware. Limiter errors let the request through.
func RateLimit(lim ratelimit.Limiter, scope, operation string, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim == nil || !rule.Enabled() {
			c.Next()
			return
		}
		dec, err := lim.Allow(c.Request.Context(), scope, UserID(c), rule)
		if err != nil {
			Logger(c).Warn("rate limit check failed", "scope", scope, "op", operation, "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
			c.Next()
			return
		}

		retryAfter := int(dec.RetryAfter.Seconds())
		if retryAfter <= 0 {
			retryAfter = 1
		}
		metrics.RateLimitHitsTotal.WithLabelValues(scope, operation).Inc()
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate limit exceeded",
			"scope":             scope,
			"operation":         operation,
			"retryAfterSeconds": retryAfter,
		})
	}
}
