package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/config"
)

func testLimiter(t *testing.T, cfg RateLimitConfig) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)
	return rl
}

// ---------------------------------------------------------------------------
// Memory backend
// ---------------------------------------------------------------------------

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := testLimiter(t, RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, _, err := rl.Allow(ctx, "client-a")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d denied, want allowed within burst", i+1)
		}
	}

	allowed, remaining, err := rl.Allow(ctx, "client-a")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Error("request beyond burst allowed, want denied")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := testLimiter(t, RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	ctx := context.Background()
	if allowed, _, _ := rl.Allow(ctx, "client-a"); !allowed {
		t.Fatal("first request for client-a denied")
	}
	if allowed, _, _ := rl.Allow(ctx, "client-a"); allowed {
		t.Error("second request for client-a allowed, want denied")
	}
	if allowed, _, _ := rl.Allow(ctx, "client-b"); !allowed {
		t.Error("first request for client-b denied, want independent bucket")
	}
}

func TestRateLimiter_TokensRefillOverTime(t *testing.T) {
	// 6000 rpm = 100 tokens/second, so a drained bucket recovers within ~10ms
	rl := testLimiter(t, RateLimitConfig{
		RequestsPerMinute: 6000,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	ctx := context.Background()
	if allowed, _, _ := rl.Allow(ctx, "client-a"); !allowed {
		t.Fatal("first request denied")
	}
	if allowed, _, _ := rl.Allow(ctx, "client-a"); allowed {
		t.Fatal("drained bucket allowed immediately, want denied")
	}

	time.Sleep(50 * time.Millisecond)
	if allowed, _, _ := rl.Allow(ctx, "client-a"); !allowed {
		t.Error("request after refill window denied, want allowed")
	}
}

func TestRateLimiter_Limit(t *testing.T) {
	rl := testLimiter(t, RateLimitConfig{
		RequestsPerMinute: 42,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	if rl.Limit() != 42 {
		t.Errorf("Limit() = %d, want 42", rl.Limit())
	}
}

// ---------------------------------------------------------------------------
// Presets and backend selection
// ---------------------------------------------------------------------------

func TestAuthRateLimitConfig_StricterThanDefault(t *testing.T) {
	def := DefaultRateLimitConfig()
	authCfg := AuthRateLimitConfig()
	if authCfg.RequestsPerMinute >= def.RequestsPerMinute {
		t.Errorf("auth rpm %d not stricter than default %d", authCfg.RequestsPerMinute, def.RequestsPerMinute)
	}
	if authCfg.BurstSize >= def.BurstSize {
		t.Errorf("auth burst %d not stricter than default %d", authCfg.BurstSize, def.BurstSize)
	}
}

func TestNewLimiter_MemoryBackend(t *testing.T) {
	limiter := NewLimiter(config.RateLimitingConfig{Backend: "memory"}, DefaultRateLimitConfig())
	t.Cleanup(limiter.Stop)
	if _, ok := limiter.(*RateLimiter); !ok {
		t.Errorf("NewLimiter(memory) = %T, want *RateLimiter", limiter)
	}
}

func TestNewLimiter_RedisBackend(t *testing.T) {
	limiter := NewLimiter(config.RateLimitingConfig{
		Backend:      "redis",
		RedisAddress: "localhost:6379",
	}, DefaultRateLimitConfig())
	t.Cleanup(limiter.Stop)
	if _, ok := limiter.(*RedisRateLimiter); !ok {
		t.Errorf("NewLimiter(redis) = %T, want *RedisRateLimiter", limiter)
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func newRateLimitRouter(limiter Limiter) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitMiddleware_AllowsAndSetsHeaders(t *testing.T) {
	rl := testLimiter(t, RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	r := newRateLimitRouter(rl)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("X-RateLimit-Limit = %q, want 60", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining header missing")
	}
}

func TestRateLimitMiddleware_RejectsWhenExhausted(t *testing.T) {
	rl := testLimiter(t, RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	r := newRateLimitRouter(rl)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)

		if i == 0 && w.Code != http.StatusOK {
			t.Fatalf("first request status = %d, want 200", w.Code)
		}
		if i == 1 {
			if w.Code != http.StatusTooManyRequests {
				t.Fatalf("second request status = %d, want 429", w.Code)
			}
			if w.Header().Get("Retry-After") != "60" {
				t.Errorf("Retry-After = %q, want 60", w.Header().Get("Retry-After"))
			}
		}
	}
}

func TestRateLimitMiddleware_AuthenticatedUsersGetOwnBucket(t *testing.T) {
	rl := testLimiter(t, RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})

	r := gin.New()
	userID := "user-1"
	r.Use(func(c *gin.Context) {
		c.Set(UserIDKey, userID)
		c.Next()
	})
	r.Use(RateLimitMiddleware(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Two users from the same IP each get a full bucket.
	for _, id := range []string{"user-1", "user-2"} {
		userID = id
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("first request for %s status = %d, want 200", id, w.Code)
		}
	}
}

func TestGetRateLimitKey_FallsBackToIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	c.Request = req

	key := getRateLimitKey(c)
	if key != "ip:192.0.2.7" {
		t.Errorf("key = %q, want ip:192.0.2.7", key)
	}
}
