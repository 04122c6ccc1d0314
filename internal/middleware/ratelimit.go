// ratelimit.go provides Gin middleware that enforces per-client rate limits,
// returning 429 responses when the configured requests-per-minute threshold is
// exceeded. Two backends are available: an in-process token bucket for single
// instance deployments, and a Redis-backed GCRA limiter that holds limits
// across replicas.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/committee-registry/committee-registry/internal/config"
	"github.com/committee-registry/committee-registry/internal/safego"
)

// RateLimitConfig holds configuration for a single limiter instance
type RateLimitConfig struct {
	// RequestsPerMinute is the maximum number of requests allowed per minute
	RequestsPerMinute int
	// BurstSize is the maximum burst of requests allowed
	BurstSize int
	// CleanupInterval is how often the memory backend evicts idle entries
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns sensible defaults for authenticated API usage
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 200,
		BurstSize:         50, // Allow burst for dashboards that load several resources
		CleanupInterval:   5 * time.Minute,
	}
}

// AuthRateLimitConfig returns stricter limits for the login and signup endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10, // 10 login attempts per minute
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter is the contract both rate limiting backends satisfy.
type Limiter interface {
	// Allow reports whether a request from key may proceed, along with the
	// number of requests the caller has left in the current window.
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	// Limit returns the configured requests-per-minute ceiling.
	Limit() int
	// Stop releases backend resources (goroutines, connections).
	Stop()
}

// NewLimiter builds a Limiter from the application rate limiting config,
// using cfg.Backend to pick the implementation. The preset supplies the
// per-endpoint-class limits; the application config supplies the backend.
func NewLimiter(appCfg config.RateLimitingConfig, preset RateLimitConfig) Limiter {
	if appCfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddress,
			Password: appCfg.RedisPassword,
		})
		return NewRedisRateLimiter(client, preset)
	}
	return NewRateLimiter(preset)
}

// ---------------------------------------------------------------------------
// Memory backend
// ---------------------------------------------------------------------------

// rateLimitEntry tracks the token bucket for a single client
type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter implements Limiter with an in-process token bucket per client
type RateLimiter struct {
	config  RateLimitConfig
	entries map[string]*rateLimitEntry
	mu      sync.Mutex
	stopCh  chan struct{}
}

// NewRateLimiter creates an in-memory rate limiter and starts its cleanup goroutine
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		entries: make(map[string]*rateLimitEntry),
		stopCh:  make(chan struct{}),
	}

	safego.Go(rl.cleanup)

	return rl
}

// cleanup periodically removes entries that have not been seen recently
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, entry := range rl.entries {
				// An idle client's bucket is full again anyway, so the entry is redundant
				if now.Sub(entry.lastUpdate) > 10*time.Minute {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Limit returns the configured requests-per-minute ceiling
func (rl *RateLimiter) Limit() int {
	return rl.config.RequestsPerMinute
}

// Allow checks if a request from the given key should be allowed
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]

	if !exists {
		// New client, give them full burst minus this request
		rl.entries[key] = &rateLimitEntry{
			tokens:     float64(rl.config.BurstSize) - 1,
			lastUpdate: now,
		}
		return true, rl.config.BurstSize - 1, nil
	}

	// Refill based on time elapsed, capped at burst size
	elapsed := now.Sub(entry.lastUpdate)
	tokensPerSecond := float64(rl.config.RequestsPerMinute) / 60.0
	entry.tokens = minFloat(float64(rl.config.BurstSize), entry.tokens+elapsed.Seconds()*tokensPerSecond)
	entry.lastUpdate = now

	if entry.tokens >= 1 {
		entry.tokens--
		return true, int(entry.tokens), nil
	}

	return false, 0, nil
}

// ---------------------------------------------------------------------------
// Redis backend
// ---------------------------------------------------------------------------

// RedisRateLimiter implements Limiter on top of redis_rate's GCRA algorithm,
// so limits are shared across all server replicas pointing at the same Redis.
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	client  *redis.Client
	limit   redis_rate.Limit
	rpm     int
}

// NewRedisRateLimiter creates a Redis-backed rate limiter.
// The limiter owns the client and closes it on Stop.
func NewRedisRateLimiter(client *redis.Client, config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(client),
		client:  client,
		limit: redis_rate.Limit{
			Rate:   config.RequestsPerMinute,
			Burst:  config.BurstSize,
			Period: time.Minute,
		},
		rpm: config.RequestsPerMinute,
	}
}

// Limit returns the configured requests-per-minute ceiling
func (rl *RedisRateLimiter) Limit() int {
	return rl.rpm
}

// Allow checks the shared Redis bucket for the given key
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	res, err := rl.limiter.Allow(ctx, "ratelimit:"+key, rl.limit)
	if err != nil {
		return false, 0, err
	}
	return res.Allowed > 0, res.Remaining, nil
}

// Stop closes the underlying Redis client
func (rl *RedisRateLimiter) Stop() {
	_ = rl.client.Close()
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// RateLimitMiddleware creates a Gin middleware that rate limits requests.
//
// A backend error (Redis unreachable) fails open: blocking all traffic on a
// Redis outage is worse than briefly losing rate limiting.
func RateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := getRateLimitKey(c)

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// getRateLimitKey determines the key to use for rate limiting.
// Authenticated users are limited per account; anonymous traffic per IP.
func getRateLimitKey(c *gin.Context) string {
	if userID, exists := c.Get(UserIDKey); exists {
		if id, ok := userID.(string); ok && id != "" {
			return "user:" + id
		}
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
