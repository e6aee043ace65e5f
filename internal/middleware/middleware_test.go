package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestBearerAuth(t *testing.T) {
	h := BearerAuth(AuthConfig{Token: "s3cret"})(okHandler)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"public health", "/health", "", http.StatusNoContent},
		{"missing header", "/v1/exploits", "", http.StatusUnauthorized},
		{"wrong token", "/v1/exploits", "Bearer nope", http.StatusUnauthorized},
		{"blank bearer", "/v1/exploits", "Bearer ", http.StatusUnauthorized},
		{"bearer token", "/v1/exploits", "Bearer s3cret", http.StatusNoContent},
		{"bare token", "/v1/exploits", "s3cret", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestBearerAuthDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	BearerAuth(AuthConfig{})(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/exploits", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBearerAuthJWT(t *testing.T) {
	secret := []byte("jwt-secret")
	h := BearerAuth(AuthConfig{JWTSecret: secret})(okHandler)

	sign := func(key []byte, exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "analyst",
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString(key)
		require.NoError(t, err)
		return tok
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "analyst"}).SignedString(secret)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"valid", sign(secret, time.Now().Add(time.Hour)), http.StatusNoContent},
		{"expired", sign(secret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"wrong key", sign([]byte("other"), time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"no expiry", noExp, http.StatusUnauthorized},
		{"garbage", "not.a.jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/exploits", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestTokenBucket(t *testing.T) {
	now := time.Unix(0, 0)
	tb := newTokenBucket(2, 1, func() time.Time { return now })

	allow := func() bool { ok, _ := tb.Allow(); return ok }
	assert.True(t, allow())
	assert.True(t, allow())
	ok, wait := tb.Allow()
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, allow())
	ok, wait = tb.Allow()
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(11 * time.Minute)
	rl.Allow("c")
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(1, 0)(okHandler)

	first := httptest.NewRequest(http.MethodPost, "/v1/exploits/1/analysis", nil)
	first.RemoteAddr = "10.0.0.1:1111"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// same host, different port
	second := httptest.NewRequest(http.MethodPost, "/v1/exploits/1/analysis", nil)
	second.RemoteAddr = "10.0.0.1:2222"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"), "no refill means a minute")

	other := httptest.NewRequest(http.MethodPost, "/v1/exploits/1/analysis", nil)
	other.RemoteAddr = "10.0.0.2:1111"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	checks := map[string]HealthChecker{
		"catalog":  CatalogHealthChecker{Len: func() int { return 3 }},
		"database": CheckFunc(func(ctx context.Context) error { return errors.New("down") }),
	}
	rec := httptest.NewRecorder()
	HealthHandler(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["catalog"].Status)
	assert.Equal(t, "down", body.Checks["database"].Message)
}

func TestCatalogHealthCheckerEmpty(t *testing.T) {
	assert.Error(t, CatalogHealthChecker{Len: func() int { return 0 }}.Check(context.Background()))
	assert.Error(t, CatalogHealthChecker{}.Check(context.Background()))
}

func TestMetricsMiddlewareAndAnalyses(t *testing.T) {
	m := Global()
	before := m.RequestsFailed.Load()
	total := m.AnalysesTotal.Load()

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	MetricsMiddleware(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, before+1, m.RequestsFailed.Load())

	m.AnalysisDispatched()
	m.AnalysisSettled(true, false)
	assert.Equal(t, total+1, m.AnalysesTotal.Load())

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var snap map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Contains(t, snap, "analyses_discarded")
	assert.Contains(t, snap, "goroutines")
}

func TestLoggingMiddlewareKeepsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	LoggingMiddleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestValidators(t *testing.T) {
	q, err := ValidateQuery("  rce\x00 linux\x07 ")
	require.NoError(t, err)
	assert.Equal(t, "rce linux", q)

	_, err = ValidateQuery(strings.Repeat("a", maxQueryLen+1))
	assert.Error(t, err)

	assert.NoError(t, ValidateExploitID("50383"))
	assert.Error(t, ValidateExploitID(""))
	assert.Error(t, ValidateExploitID("../etc/passwd"))

	f, err := ValidateFormat(" DOCX ")
	require.NoError(t, err)
	assert.Equal(t, "docx", f)
	f, err = ValidateFormat("")
	require.NoError(t, err)
	assert.Equal(t, "pdf", f)
	_, err = ValidateFormat("odt")
	assert.Error(t, err)

	assert.Equal(t, 20, ValidateLimit(0, 100))
	assert.Equal(t, 100, ValidateLimit(5000, 100))
	assert.Equal(t, 7, ValidateLimit(7, 100))
	assert.Equal(t, 1, ValidatePage(-3))
	assert.Equal(t, 4, ValidatePage(4))
}
