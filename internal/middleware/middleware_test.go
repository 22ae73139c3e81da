package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/auth"
	"github.com/nexustechhub/nexus-api/internal/models"
)

func init() { gin.SetMode(gin.TestMode) }

type roles map[string]string

func (r roles) Role(ctx context.Context, id string) (string, error) {
	if id == "broken" {
		return "", errors.New("connection refused")
	}
	role, ok := r[id]
	if !ok {
		return "", auth.ErrCustomerNotFound
	}
	return role, nil
}

func newRouter(tokens *auth.Tokens) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, CustomerID(c))
	})
	r.GET("/maybe", OptionalAuth(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, "id="+CustomerID(c))
	})
	admin := r.Group("/admin", AuthMiddleware(tokens), AdminMiddleware(roles{"boss": models.RoleAdmin, "cust": models.RoleCustomer}, zap.NewNop()))
	admin.GET("", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := newRouter(tokens)
	tok, err := tokens.GenerateToken("cust-42", "a@example.com")
	require.NoError(t, err)

	w := get(r, "/me", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cust-42", w.Body.String())

	for _, header := range []string{"", "Token " + tok, "Bearer nope"} {
		w := get(r, "/me", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), `"success":false`)
	}

	assert.Equal(t, "id=cust-42", get(r, "/maybe", "Bearer "+tok).Body.String())
	assert.Equal(t, "id=", get(r, "/maybe", "Bearer junk").Body.String())
	assert.Equal(t, "id=", get(r, "/maybe", "").Body.String())
}

func TestAdminMiddleware(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := newRouter(tokens)
	token := func(id string) string {
		tok, err := tokens.GenerateToken(id, "")
		require.NoError(t, err)
		return "Bearer " + tok
	}

	assert.Equal(t, http.StatusOK, get(r, "/admin", token("boss")).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", token("cust")).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", token("ghost")).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
	assert.Equal(t, http.StatusInternalServerError, get(r, "/admin", token("broken")).Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://nexustechhub.ae"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://nexustechhub.ae")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://nexustechhub.ae", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := get(r, "/x", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	l := NewIPLimiter(2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "budgets are per ip")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	r := gin.New()
	r.POST("/contact", RateLimit(NewIPLimiter(1)), func(c *gin.Context) { c.Status(http.StatusOK) })
	send := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", nil))
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	rateLimited := func(trusted []string) []int {
		r := gin.New()
		require.NoError(t, r.SetTrustedProxies(trusted))
		r.POST("/contact", RateLimit(NewIPLimiter(1)), func(c *gin.Context) { c.Status(http.StatusOK) })

		var codes []int
		for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
			req := httptest.NewRequest(http.MethodPost, "/contact", nil)
			req.Header.Set("X-Forwarded-For", ip)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		return codes
	}

	// the socket address is the client, whatever the header says
	assert.Equal(t, []int{200, 429, 429}, rateLimited(nil))

	// behind a trusted proxy each forwarded client gets its own budget
	assert.Equal(t, []int{200, 200, 200}, rateLimited([]string{"192.0.2.1"}))
}
