package signup

import (
	"net/http"
	"sync"

	"github.com/goliatone/go-router"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	KeyFunc  func(router.Context) string
}

// NewRateLimiter allows perSecond requests per client with the given burst
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		KeyFunc: func(c router.Context) string {
			return c.IP()
		},
	}
}

// Allow consumes a token for key
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedClients {
			l.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// Middleware rejects clients that exceeded their budget with 429
func (l *RateLimiter) Middleware() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if !l.Allow(l.KeyFunc(ctx)) {
				return ctx.JSON(http.StatusTooManyRequests, map[string]any{
					"success": false,
					"message": "too many requests, slow down",
					"code":    "RATE_LIMITED",
				})
			}
			return ctx.Next()
		}
	}
}
