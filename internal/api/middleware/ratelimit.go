package middleware

import (
	"net/http"
	"sync"
	"time"

	"ledger-api/internal/config"

	"github.com/gin-gonic/gin"
)

// tier is one sliding window this limiter enforces, e.g. 100 requests per
// minute or 3000 requests per hour.
type tier struct {
	limit  int
	window time.Duration
}

// rateLimiter is a per-client sliding-window counter checked against every
// configured tier. Rate limiting stays an outer-layer concern enforced
// independently of the transactional core, so this is a simple in-process
// limiter rather than a distributed one.
type rateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	tiers    []tier
}

func RateLimit(cfg *config.Config) gin.HandlerFunc {
	var tiers []tier
	if cfg.RateLimit.PerMinute > 0 {
		tiers = append(tiers, tier{limit: cfg.RateLimit.PerMinute, window: time.Minute})
	}
	if cfg.RateLimit.PerHour > 0 {
		tiers = append(tiers, tier{limit: cfg.RateLimit.PerHour, window: time.Hour})
	}

	limiter := &rateLimiter{
		requests: make(map[string][]time.Time),
		tiers:    tiers,
	}
	return func(c *gin.Context) {
		if len(limiter.tiers) == 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()

		limiter.mutex.Lock()
		defer limiter.mutex.Unlock()

		now := time.Now()

		maxWindow := limiter.tiers[0].window
		for _, t := range limiter.tiers[1:] {
			if t.window > maxWindow {
				maxWindow = t.window
			}
		}
		var kept []time.Time
		for _, reqTime := range limiter.requests[clientIP] {
			if now.Sub(reqTime) < maxWindow {
				kept = append(kept, reqTime)
			}
		}
		limiter.requests[clientIP] = kept

		for _, t := range limiter.tiers {
			count := 0
			for _, reqTime := range kept {
				if now.Sub(reqTime) < t.window {
					count++
				}
			}
			if count >= t.limit {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":       "rate limit exceeded, try again later",
					"retry_after": int(t.window.Seconds()),
				})
				c.Abort()
				return
			}
		}

		limiter.requests[clientIP] = append(kept, now)
		c.Next()
	}
}
