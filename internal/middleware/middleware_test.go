package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrivesend/thrivesend-backend/pkg/jwt"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T, reached *bool) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(RequestLogger(), Metrics())
	r.GET("/protected", BearerAuth(jwt.NewManager(testSecret, "thrivesend")), func(c *gin.Context) {
		*reached = true
		c.JSON(http.StatusOK, gin.H{"user": GetExternalUserID(c)})
	})
	return r
}

func TestBearerAuth(t *testing.T) {
	valid, err := jwt.NewManager(testSecret, "thrivesend").GenerateToken("u1", "u1@example.com", "org-1", time.Hour)
	require.NoError(t, err)
	expired, err := jwt.NewManager(testSecret, "thrivesend").GenerateToken("u1", "", "", -time.Minute)
	require.NoError(t, err)
	foreign, err := jwt.NewManager("other-secret", "thrivesend").GenerateToken("u1", "", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"bad signature", "Bearer " + foreign, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			r := newAuthRouter(t, &reached)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, reached)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user":"u1"}`, w.Body.String())
			}
		})
	}
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", w.Body.String())
}

func TestRateLimit_FailsOpen(t *testing.T) {
	unreachable := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer unreachable.Close()

	for name, client := range map[string]*redis.Client{"nil client": nil, "redis down": unreachable} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.POST("/write", RateLimit(client, 1), func(c *gin.Context) { c.Status(http.StatusNoContent) })

			for i := 0; i < 3; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
				assert.Equal(t, http.StatusNoContent, w.Code)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
