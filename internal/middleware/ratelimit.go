package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/BillMorio/Video-Agent-sub002/pkg/response"
)

// RateLimiter is a fixed-window limiter backed by Redis counters
type RateLimiter struct {
	redis redis.Cmdable
}

func NewRateLimiter(redisClient redis.Cmdable) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit allows maxRequests per window for each user, or each client IP
// when the route is not authenticated. A zero limit disables it.
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if maxRequests <= 0 || rl.redis == nil {
			return c.Next()
		}

		subject := GetUserID(c)
		if subject == "" {
			subject = "ip:" + c.IP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, subject)
		ctx := c.UserContext()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
			return c.Next()
		}
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// ProductionLimit bounds production steps and starts per minute
func (rl *RateLimiter) ProductionLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("production", maxPerMin, time.Minute)
}

// StitchLimit bounds stitch requests per hour
func (rl *RateLimiter) StitchLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("stitch", maxPerHour, time.Hour)
}

// InitLimit bounds project creation per hour
func (rl *RateLimiter) InitLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("init", maxPerHour, time.Hour)
}
