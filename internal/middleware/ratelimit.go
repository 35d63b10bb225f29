package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed rejects the request if Redis is unavailable.
	FailClosed
)

// ErrLimiterUnavailable is returned when no Redis client is configured.
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// CheckRateLimit increments the fixed-window counter for resource/id and
// reports whether the caller is still within limit.
// Rate limiting is disabled when APP_ENV is "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	switch env {
	case "test", "development", "stress":
		return true, nil
	}

	return checkWindow(ctx, rdb, resource, id, limit, window)
}

func checkWindow(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, ErrLimiterUnavailable
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// CheckRateLimitWithPolicy is CheckRateLimit with the store failure resolved by
// policy: FailOpen allows the request, FailClosed returns the error so the
// caller can refuse it.
func CheckRateLimitWithPolicy(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration, policy FailPolicy) (bool, error) {
	allowed, err := CheckRateLimit(ctx, rdb, resource, id, limit, window)
	if err == nil {
		return allowed, nil
	}
	if policy == FailClosed {
		Logger.WarnContext(ctx, "rate limit fail-closed",
			slog.String("resource", resource),
			slog.String("error", err.Error()),
		)
		return false, err
	}
	Logger.WarnContext(ctx, "rate limit check failed, allowing request",
		slog.String("resource", resource),
		slog.String("error", err.Error()),
	)
	return true, nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`
// keyed by viewer id when authenticated, otherwise by remote IP. It fails open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimitWithPolicy(c.UserContext(), rdb, resource, id, limit, window, policy)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "rate limit unavailable",
			})
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
