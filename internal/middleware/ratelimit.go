package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitMiddleware is a fixed-window counter in redis. It keys by the
// actor when mounted after AuthMiddleware and by client IP otherwise.
func RateLimitMiddleware(rdb *redis.Client, name string, limit int, window time.Duration, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limit <= 0 {
			return c.Next()
		}

		key := rateLimitKey(c, name)

		ctx := c.UserContext()
		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, window)
			return nil
		})
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next() // fail open
		}

		count := incr.Val()
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}

func rateLimitKey(c *fiber.Ctx, name string) string {
	client := "ip:" + c.IP()
	if id, ok := c.Locals(CtxActorID).(uuid.UUID); ok && id != uuid.Nil {
		client = "actor:" + id.String()
	}
	return fmt.Sprintf("rl:%s:%s", name, client)
}
