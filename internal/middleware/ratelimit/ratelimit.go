package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bmex-dev/leveldensity/internal/metrics"
	"github.com/bmex-dev/leveldensity/pkg/logger"
)

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than the idle timeout are forgotten.
type RateLimiter struct {
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

type Config struct {
	RequestsPerMinute int
	Burst             int
	IdleTimeout       time.Duration
}

func New(cfg Config) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}

	return &RateLimiter{
		limiters: cache.New(cfg.IdleTimeout, cfg.IdleTimeout/2),
		limit:    rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:    cfg.Burst,
	}
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()

		if !rl.allow(key) {
			metrics.RateLimited.Inc()
			logger.Warn("Rate limit exceeded",
				zap.String("ip", key),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		if existing, found := rl.limiters.Get(key); found {
			limiter = existing.(*rate.Limiter)
		}
	}
	// refresh the idle timer
	rl.limiters.SetDefault(key, limiter)

	return limiter.Allow()
}
