// ========================================
// internal/middleware/rate_limiter.go
// Rate limiting to prevent abuse

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter implements rate limiting directly against Redis — grounded
// on the teacher's CacheService.Increment (internal/services/
// cache_service.go), inlined here now that CacheService itself doesn't
// survive the transformation.
func RateLimiter(client *redis.Client) gin.HandlerFunc {
	const (
		limit  = 100
		window = time.Minute
	)
	return func(c *gin.Context) {
		var key string
		if accountID, exists := c.Get("account_id"); exists {
			key = fmt.Sprintf("rate_limit:account:%v", accountID)
		} else {
			key = fmt.Sprintf("rate_limit:ip:%s", c.ClientIP())
		}

		ctx := context.Background()
		pipe := client.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			// Don't block on rate limit errors
			c.Next()
			return
		}
		count := int(incr.Val())

		if count > limit {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limit-count))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(window).Unix()))

		c.Next()
	}
}
