package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/anikmoz/green-firm-house/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

type rateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*rateEntry
	lastGC  time.Time
}

// RateLimiter allows limit requests per window and IP. A limit <= 0
// disables it.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	rl := &rateLimiter{limit: limit, window: window, entries: make(map[string]*rateEntry)}
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	now := time.Now()
	entry := rl.entry(c.ClientIP(), now)

	entry.mu.Lock()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rl.window)
	}
	entry.count++
	over := entry.count > rl.limit
	windowEnd := entry.windowEnd
	entry.mu.Unlock()

	if over {
		c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests, try again shortly"))
		return
	}
	c.Next()
}

func (rl *rateLimiter) entry(ip string, now time.Time) *rateEntry {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Expired entries are purged at most once per window so IPs that never
	// return do not accumulate.
	if now.Sub(rl.lastGC) > rl.window {
		purged := 0
		for k, e := range rl.entries {
			e.mu.Lock()
			if now.After(e.windowEnd) {
				delete(rl.entries, k)
				purged++
			}
			e.mu.Unlock()
		}
		rl.lastGC = now
		if purged > 0 {
			log.Debug().Int("purged", purged).Int("remaining", len(rl.entries)).Msg("rate limiter entries purged")
		}
	}

	e, ok := rl.entries[ip]
	if !ok {
		e = &rateEntry{}
		rl.entries[ip] = e
	}
	return e
}
