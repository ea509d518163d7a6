package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/will-chou/capstone-community/internal/ratelimit"
	"github.com/will-chou/capstone-community/pkg/logger"
	"github.com/will-chou/capstone-community/pkg/metrics"
)

// Checker is the sliding-window limiter the middleware consults.
type Checker interface {
	Check(ctx context.Context, key string) (ratelimit.Decision, error)
}

// UserRateLimitMiddleware limits authenticated requests per email. It must
// run after IdentityAuth; requests without an identity are rejected.
func UserRateLimitMiddleware(l Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || id.Email == "" {
			unauthorized(c, "rate_limit")
			return
		}
		enforce(c, l, "user", "rl:user:"+id.Email)
	}
}

// IPRateLimitMiddleware limits requests per client address.
func IPRateLimitMiddleware(l Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		enforce(c, l, "ip", "rl:ip:"+ip)
	}
}

func enforce(c *gin.Context, l Checker, limiter, key string) {
	d, err := l.Check(c.Request.Context(), key)
	if err != nil {
		metrics.RateLimitErrors.WithLabelValues(limiter).Inc()
		logger.Errorf("rate limit check failed for %s: %v", key, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if d.Limited {
		metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
		c.Header("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}
	metrics.RateLimitAllowed.WithLabelValues(limiter).Inc()
	c.Next()
}
