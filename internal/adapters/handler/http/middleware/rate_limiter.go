package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiterMiddleware enforces a fixed-window request cap per client IP,
// counted in Redis. When Redis is unreachable requests pass through
// unthrottled: losing the limiter beats losing the API.
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rateLimitKeyPrefix + c.ClientIP()

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		ttl := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("rate limiter: redis unavailable, letting request through: %v", err)
			c.Next()
			return
		}

		count := incr.Val()
		remaining := ttl.Val()

		// First hit of the window, or a key that lost its expiry (TTL -1):
		// arm the window now so the counter can never live forever.
		if count == 1 || remaining < 0 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("rate limiter: failed to arm window, letting request through: %v", err)
				c.Next()
				return
			}
			remaining = window
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(limit)-count), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(remaining).Unix(), 10))

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               "rate limit exceeded",
				"retry_after_seconds": int(remaining.Seconds()),
			})
			return
		}

		c.Next()
	}
}
