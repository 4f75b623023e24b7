package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/ollamacmd/errors"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// PerMinute is the number of requests allowed per key in any one-minute
	// window. Zero or less disables limiting.
	PerMinute int
	// KeyFunc extracts the limit key. Defaults to the client IP.
	KeyFunc func(*gin.Context) string
	// Now is the clock, replaced in tests.
	Now func() time.Time
}

// RateLimit applies a per-key sliding one-minute window.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.PerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	w := &window{limit: cfg.PerMinute, hits: make(map[string][]time.Time)}

	return func(c *gin.Context) {
		if !w.allow(cfg.KeyFunc(c), cfg.Now()) {
			err := apperrors.New(apperrors.ErrCodeQueueFull, "Too many commands, slow down.", http.StatusTooManyRequests)
			c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
			return
		}
		c.Next()
	}
}

type window struct {
	mu    sync.Mutex
	limit int
	hits  map[string][]time.Time
	calls int
}

func (w *window) allow(key string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-time.Minute)
	// Sweep idle keys every so often instead of running a janitor goroutine.
	w.calls++
	if w.calls%1024 == 0 {
		for k, ts := range w.hits {
			if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
				delete(w.hits, k)
			}
		}
	}

	recent := w.hits[key]
	i := 0
	for i < len(recent) && !recent[i].After(cutoff) {
		i++
	}
	recent = recent[i:]
	if len(recent) >= w.limit {
		w.hits[key] = recent
		return false
	}
	w.hits[key] = append(recent, now)
	return true
}
