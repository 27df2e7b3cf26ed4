package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"concierge/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware(zap.NewNop()))
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": c.GetString(TenantIDKey)})
	})
	return r
}

func get(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTenantAuth(t *testing.T) {
	r := newEngine(TenantAuthMiddleware())
	token, err := utils.GenerateTenantToken("t1", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateTenantToken("t1", -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, map[string]string{"Authorization": tt.header})
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := get(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Contains(t, w.Body.String(), `"tenant":"t1"`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRateLimiterPerClient(t *testing.T) {
	r := newEngine(NewRateLimiter(4).Middleware())

	assert.Equal(t, http.StatusOK, get(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, nil).Code)

	other := get(r, map[string]string{"X-Forwarded-For": "192.168.1.9, 10.0.0.1"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8"}, "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
		{"remote addr", nil, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = "10.0.0.1:5555"
			for k, v := range tt.header {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(c))
		})
	}
}
