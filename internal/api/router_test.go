package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/committee-registry/committee-registry/internal/config"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("CMT_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Security.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Security.RateLimiting.Backend = "memory"
	cfg.Audit.Enabled = false
	return cfg
}

func newTestRouter(t *testing.T, pingErr error) (*gin.Engine, *BackgroundServices) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if pingErr != nil {
		mock.ExpectPing().WillReturnError(pingErr)
	} else {
		mock.ExpectPing()
	}
	router, bg := NewRouter(testConfig(), db)
	t.Cleanup(bg.Shutdown)
	return router, bg
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	router, _ := newTestRouter(t, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoutesRequireAuthentication(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/committees"},
		{http.MethodPost, "/api/v1/committees"},
		{http.MethodGet, "/api/v1/committees/cmt-1/members"},
		{http.MethodGet, "/api/v1/memberships/mem-1/contributions"},
		{http.MethodPatch, "/api/v1/contributions/ctr-1/verify"},
		{http.MethodGet, "/api/v1/payouts"},
		{http.MethodPatch, "/api/v1/payouts/pay-1/confirm"},
	}
	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401 without a token, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestAuthRoutesArePublic(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	// A malformed body reaches the handler and fails binding, proving the
	// route is not behind the auth middleware.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for empty signup body, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/committees", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected allowed origin echoed back, got %q", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS headers for disallowed origin, got %q", got)
	}
}
