package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/infrastructure/ratelimit"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

// RateLimiter limits requests per client IP and route scope. When Redis is
// unavailable requests are let through.
type RateLimiter struct {
	limiter ratelimit.RateLimiter
	cfg     ratelimit.Config
	logger  logger.Interface
}

func NewRateLimiter(limiter ratelimit.RateLimiter, cfg ratelimit.Config, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

// Limit returns a middleware counting requests under scope. A nil receiver
// yields a pass-through handler so routes can be declared unconditionally.
func (rl *RateLimiter) Limit(scope string) gin.HandlerFunc {
	if rl == nil || rl.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		allowed, err := rl.limiter.Allow(c.Request.Context(), key, rl.cfg)
		if err != nil {
			rl.logger.Warnw("rate limiter unavailable, allowing request", "scope", scope, "error", err)
			c.Next()
			return
		}

		if !allowed {
			rl.logger.Warnw("rate limit exceeded", "scope", scope, "client_ip", c.ClientIP())
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
