package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/HammerMeetNail/postcoach/internal/logging"
	"github.com/HammerMeetNail/postcoach/internal/metrics"
)

const rateLimitMessage = "Too many requests. Please try again later."

// WindowCounter counts hits against a key within a fixed window.
type WindowCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisWindowCounter keeps fixed-window counters in Redis so limits are shared
// across server instances.
type RedisWindowCounter struct {
	client *redis.Client
}

func NewRedisWindowCounter(client *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{client: client}
}

func (c *RedisWindowCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter rejects clients that exceed limit requests per window. It counts
// in Redis when a WindowCounter is configured and falls back to per-process
// token buckets when there is none or the counter fails.
type RateLimiter struct {
	counter WindowCounter
	limit   int
	window  time.Duration
	prefix  string
	keyFunc func(*http.Request) string

	logger  *logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu          sync.Mutex
	visitors    map[string]*visitor
	lastCleanup time.Time
}

// NewRateLimiter builds a limiter. counter may be nil. keyFunc defaults to the
// client IP.
func NewRateLimiter(counter WindowCounter, limit int, window time.Duration, prefix string, keyFunc func(*http.Request) string) *RateLimiter {
	if keyFunc == nil {
		keyFunc = GetClientIP
	}
	return &RateLimiter{
		counter:  counter,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFunc:  keyFunc,
		logger:   logging.Default,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (rl *RateLimiter) SetLogger(logger *logging.Logger) *RateLimiter {
	if logger != nil {
		rl.logger = logger
	}
	return rl
}

func (rl *RateLimiter) SetMetrics(m *metrics.Metrics) *RateLimiter {
	rl.metrics = m
	return rl
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.keyFunc(r)

		allowed, retryAfter := rl.allow(r.Context(), w, key)
		if !allowed {
			rl.metrics.ObserveRateLimited()
			rl.logger.Warn("Rate limit exceeded", map[string]interface{}{
				"key":  key,
				"path": r.URL.Path,
			})
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, rateLimitMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow reports whether the request may proceed and, when it may not, how many
// seconds the client should wait.
func (rl *RateLimiter) allow(ctx context.Context, w http.ResponseWriter, key string) (bool, int) {
	now := rl.now()
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))

	if rl.counter != nil {
		windowStart := now.Truncate(rl.window)
		windowEnd := windowStart.Add(rl.window)
		counterKey := fmt.Sprintf("%s%s:%d", rl.prefix, key, windowStart.Unix())

		count, err := rl.counter.Increment(ctx, counterKey, rl.window)
		if err == nil {
			remaining := rl.limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(windowEnd.Unix(), 10))
			return count <= int64(rl.limit), secondsUntil(now, windowEnd)
		}
		rl.logger.Warn("Rate limit counter unavailable, using local limiter", map[string]interface{}{
			"error": err.Error(),
		})
	}

	res := rl.localLimiter(key, now).ReserveN(now, 1)
	if !res.OK() {
		return false, secondsUntil(now, now.Add(rl.window))
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, secondsUntil(now, now.Add(delay))
	}
	return true, 0
}

func (rl *RateLimiter) localLimiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastCleanup) > rl.window {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > 3*rl.window {
				delete(rl.visitors, k)
			}
		}
		rl.lastCleanup = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		every := rl.window / time.Duration(rl.limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), rl.limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func secondsUntil(now, t time.Time) int {
	s := int(math.Ceil(t.Sub(now).Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// GetClientIP returns the first address in X-Forwarded-For, then X-Real-IP,
// then the host part of RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
