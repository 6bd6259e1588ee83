package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// ClientTTL is how long an idle client's limiter is kept.
	ClientTTL time.Duration
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	mu      sync.Mutex
	clients *cache.Cache
	rate    rate.Limit
	burst   int
	ttl     time.Duration
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	ttl := config.ClientTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: cache.New(ttl, 2*ttl),
		rate:    config.Rate,
		burst:   burst,
		ttl:     ttl,
	}
}

// NewLoginLimiter allows perMinute attempts per client, all of which may be
// spent at once.
func NewLoginLimiter(perMinute int, clientTTL time.Duration) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return NewRateLimiter(RateLimiterConfig{
		Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		Burst:     perMinute,
		ClientTTL: clientTTL,
	})
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.clients.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.clients.Set(key, l, rl.ttl)
		return l
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	rl.clients.Set(key, l, rl.ttl)
	return l
}

// Allow reports whether key may make another request now
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			if rl.rate > 0 {
				retry := time.Duration(float64(time.Second) / float64(rl.rate))
				c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			}
			httputil.RespondWithError(c, errors.TooManyRequests("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
