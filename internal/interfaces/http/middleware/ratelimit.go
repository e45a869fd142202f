package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopline/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed-window in-memory limiter keyed by caller.
// Counters are per process, so each replica enforces its own limit.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	remaining int
	start     time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup loop; call Stop on shutdown
func NewRateLimiter(limit int, every time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  every,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(every * 2)
	return rl
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, w := range rl.clients {
		if now.Sub(w.start) > rl.window*2 {
			delete(rl.clients, key)
		}
	}
}

// Allow consumes one request for key and reports whether it fits the window,
// along with how many requests remain.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[key] = &window{remaining: rl.limit - 1, start: now}
		return true, rl.limit - 1
	}
	if w.remaining > 0 {
		w.remaining--
		return true, w.remaining
	}
	return false, 0
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key returned by keyFunc
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := limiter.Allow(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			abortWithError(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited,
				"too many requests, please try again later")
			return
		}
		c.Next()
	}
}
