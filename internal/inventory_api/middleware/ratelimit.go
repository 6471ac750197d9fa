package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewLimiter builds an in-process limiter from a formatted rate like "300-M"
func NewLimiter(rate string) (*limiter.Limiter, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	return limiter.New(memory.NewStore(), r), nil
}

// RateLimit throttles per organization once Auth has run, per client IP
// before that
func RateLimit(logger *slog.Logger, l *limiter.Limiter) gin.HandlerFunc {
	return limitergin.NewMiddleware(l,
		limitergin.WithKeyGetter(rateLimitKey),
		limitergin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn("Rate limit exceeded", "key", rateLimitKey(c), "limit", l.Rate.Limit)
			abortAuth(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		}),
		limitergin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Error("Failed to get rate limit context", "key", rateLimitKey(c), "error", err)
			abortAuth(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
		}),
	)
}

func rateLimitKey(c *gin.Context) string {
	if org, ok := GetOrganization(c); ok {
		return org.ID.String()
	}
	return c.ClientIP()
}
