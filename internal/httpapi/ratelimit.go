package httpapi

import (
	"net/http"
	"sync"

	"sms-platform/internal/auth"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxLimiters bounds the per-account limiter map; it is reset when exceeded.
const maxLimiters = 10000

// SendLimiter throttles outbound sends per account.
type SendLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewSendLimiter allows perMinute sends per account with bursts up to perMinute.
func NewSendLimiter(perMinute int) *SendLimiter {
	return &SendLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}
}

func (l *SendLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxLimiters {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Middleware rejects with 429 once the caller's budget is spent. A nil limiter
// or a non-positive rate lets everything through.
func (l *SendLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.burst <= 0 {
			c.Next()
			return
		}
		key, err := auth.AccountID(c.Request.Context())
		if err != nil {
			key = c.ClientIP()
		}
		if !l.limiter(key).Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "send rate limit exceeded"})
			return
		}
		c.Next()
	}
}
