package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"retailworks/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ── Redis fixed-window limiter ────────────────────────────────────────────────
// Shared across replicas: one counter per client IP per window, expiring with
// the window. Falls back to the in-process limiter when Redis is unavailable.

const rateKeyPrefix = "ratelimit:"

// RateLimiter limits each client IP to limit requests per window.
// A nil rdb uses the in-process limiter only.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	local := newLocalLimiter(limit, window)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rdb == nil {
			if !local.allow(ip) {
				tooMany(c, window)
				return
			}
			c.Next()
			return
		}

		bucket := time.Now().UnixNano() / int64(window)
		key := rateKeyPrefix + ip + ":" + strconv.FormatInt(bucket, 10)
		pipe := rdb.TxPipeline()
		incr := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, window)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			log.Warn().Err(err).Msg("rate limiter: redis unavailable, using local window")
			if !local.allow(ip) {
				tooMany(c, window)
				return
			}
			c.Next()
			return
		}
		if incr.Val() > int64(limit) {
			tooMany(c, window)
			return
		}
		c.Next()
	}
}

func tooMany(c *gin.Context, window time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, retry shortly"))
}

// ── In-process fallback ───────────────────────────────────────────────────────

type rateEntry struct {
	count     int
	windowEnd time.Time
}

type localLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	entries   map[string]*rateEntry
	lastPurge time.Time
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{limit: limit, window: window, entries: map[string]*rateEntry{}, lastPurge: time.Now()}
}

func (l *localLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPurge) > 5*time.Minute {
		for k, e := range l.entries {
			if now.After(e.windowEnd) {
				delete(l.entries, k)
			}
		}
		l.lastPurge = now
	}

	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit
}
