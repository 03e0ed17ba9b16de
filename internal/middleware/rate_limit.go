package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitKeyPrefix = "ratelimit:" // ratelimit:{identifier}:{window}

// RateLimiter is a fixed-window request limiter backed by redis.
// Requests are keyed by the authenticated user when available and by
// client IP otherwise, so unauthenticated traffic cannot exhaust an
// account's budget.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		max:    max,
		window: window,
	}
}

// Handler returns the gin middleware enforcing the limit. It must be
// registered after JWTAuthMiddleware on authenticated groups so the
// user identity is already resolved.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := l.identify(c)
		windowStart := time.Now().Unix() / int64(l.window.Seconds())
		key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, identifier, windowStart)

		pipe := l.client.Pipeline()
		incr := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, l.window)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			// A broken limiter store must not take the API down.
			zap.L().Error("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if incr.Val() > int64(l.max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) identify(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if userID, ok := v.(uuid.UUID); ok {
			return "user:" + userID.String()
		}
	}
	return "ip:" + c.ClientIP()
}
