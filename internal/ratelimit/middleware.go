package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glimpse-app/glimpse-api/internal/apierr"
	"github.com/glimpse-app/glimpse-api/internal/metrics"
)

// IdentityFunc resolves the client identity a window is keyed by.
type IdentityFunc func(c *gin.Context) string

// ByClientIP is the default identity resolver.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// Middleware enforces the limiter's policy ahead of route handlers. The
// RateLimit-* headers are set on every response, allowed or not.
func Middleware(l *Limiter, identity IdentityFunc, em *metrics.Emitter) gin.HandlerFunc {
	if identity == nil {
		identity = ByClientIP
	}
	return func(c *gin.Context) {
		d := l.Allow(identity(c))

		c.Header("RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			em.Count(c.Request.Context(), "RateLimited")
			apierr.Abort(c, http.StatusTooManyRequests, apierr.CodeRateLimitExceeded,
				"too many requests; retry after the window resets")
			return
		}
		c.Next()
	}
}
