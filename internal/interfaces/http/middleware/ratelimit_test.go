package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, remaining := rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, remaining = rl.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _ = rl.Allow("a")
	assert.False(t, ok)

	ok, _ = rl.Allow("b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _ = rl.Allow("a")
	assert.True(t, ok, "new window resets the counter")
}

func TestRateLimiter_EvictExpired(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("a")

	now = now.Add(3 * time.Minute)
	rl.evictExpired()
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.POST("/login", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		return w
	}

	w := do()
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
}
