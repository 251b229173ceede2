package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Limiter admits at most a fixed number of events per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process. It is only
// correct for a single API instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

// NewMemoryLimiter admits limit events per window and key. A non-positive
// limit or window disables limiting.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		entries: make(map[string]*memoryEntry),
		idle:    window * 2,
		now:     time.Now,
	}
	if limit > 0 && window > 0 {
		l.burst = limit
		l.limit = rate.Every(window / time.Duration(limit))
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.burst <= 0 || key == "" {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)
	if len(l.entries) > 10000 {
		l.prune(now)
	}
	return allowed, nil
}

// prune drops buckets idle long enough to have refilled.
func (l *MemoryLimiter) prune(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.entries, key)
		}
	}
}

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter is a fixed window counter shared by every API instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	script *redis.Script
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		script: redis.NewScript(rateLimitScript),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 || l.window <= 0 || key == "" {
		return true, nil
	}
	redisKey := key
	if l.prefix != "" {
		redisKey = l.prefix + ":" + key
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{redisKey}, ttl, l.limit).Int64()
	if err != nil {
		return true, err
	}
	return allowed == 1, nil
}

// KeyFunc picks the bucket for a request; an empty key skips limiting.
type KeyFunc func(c *gin.Context) string

// PerUser keys authenticated callers by user id and lets anonymous ones
// through to be rejected by authorization.
func PerUser(c *gin.Context) string {
	p := PrincipalFrom(c)
	if !p.IsAuthenticated() {
		return ""
	}
	return strconv.FormatUint(uint64(p.ID()), 10)
}

// RateLimit answers 429 once key's budget is spent. Limiter failures are
// logged and the request is let through.
func RateLimit(l Limiter, key KeyFunc, retryAfter time.Duration, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}
		allowed, err := l.Allow(c.Request.Context(), k)
		if err != nil {
			log.WithError(err).WithField("key", k).Warn("rate limiter unavailable")
		}
		if !allowed {
			log.WithFields(logrus.Fields{"key": k, "path": c.Request.URL.Path}).Info("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: ErrorDetail{
				Kind:    "rate_limited",
				Code:    "rate_limited",
				Message: "too many requests, try again later",
			}})
			return
		}
		c.Next()
	}
}
