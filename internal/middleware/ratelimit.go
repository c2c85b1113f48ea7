package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/pkg/response"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter counts requests per user in fixed Redis windows. A limiter
// without a Redis client lets every request through.
type RateLimiter struct {
	redis *redis.Client
	log   logrus.FieldLogger
}

func NewRateLimiter(redisClient *redis.Client, log logrus.FieldLogger) *RateLimiter {
	return &RateLimiter{redis: redisClient, log: log}
}

// Limit creates a rate limiting middleware
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil || rl.redis == nil || maxRequests <= 0 {
			return c.Next()
		}

		userID := GetUserID(c)
		if userID == "" {
			return c.Next() // Skip rate limiting if no user (auth middleware should catch this)
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, userID)
		ctx := c.UserContext()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request but log the error
			rl.log.WithError(err).WithField("key", key).Warn("Rate limit check failed")
			return c.Next()
		}

		// Set expiration on first request
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			return response.RateLimited(c, int(ttl.Seconds()))
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// MutateLimit limits job store mutations per minute
func (rl *RateLimiter) MutateLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("mutate", maxPerMin, time.Minute)
}

// BackupLimit limits job store backups per hour
func (rl *RateLimiter) BackupLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("backup", maxPerHour, time.Hour)
}

// RebootLimit limits reboot requests per hour
func (rl *RateLimiter) RebootLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("reboot", maxPerHour, time.Hour)
}
