package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingora/lingora-backend/internal/pkg/apperror"
	"github.com/lingora/lingora-backend/internal/service"
)

type stubTokens map[string]struct {
	id   uuid.UUID
	role string
}

func (s stubTokens) ParseAccess(token string) (uuid.UUID, string, error) {
	if v, ok := s[token]; ok {
		return v.id, v.role, nil
	}
	return uuid.Nil, "", errors.New("bad token")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAndRequireRole(t *testing.T) {
	adminID := uuid.New()
	tokens := stubTokens{
		"admin":    {id: adminID, role: "admin"},
		"provider": {id: uuid.New(), role: "provider"},
	}
	r := gin.New()
	r.GET("/admin", AuthMiddleware(tokens), RequireRole("admin"), func(c *gin.Context) {
		c.String(http.StatusOK, c.MustGet(ContextUserIDKey).(uuid.UUID).String())
	})

	w := perform(r, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer provider"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer admin"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adminID.String(), w.Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/forbidden", func(c *gin.Context) { _ = c.Error(apperror.ErrForbidden) })
	r.GET("/internal", func(c *gin.Context) {
		_ = c.Error(apperror.Internal(errors.New("pq: connection refused"), "не удалось"))
	})

	w := perform(r, http.MethodGet, "/forbidden", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"недостаточно прав"}`, w.Body.String())

	w = perform(r, http.MethodGet, "/internal", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq")
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/contact", RateLimitMiddleware(NewLimiterStore(nil, "test"), "contact", 2, time.Hour), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodGet, "/contact", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := perform(r, http.MethodGet, "/contact", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestResponseCache(t *testing.T) {
	cache := service.NewCacheService(time.Hour)
	defer cache.Close()
	opts := CacheOptions{Prefix: "lingora", TTL: time.Minute, MaxBodyBytes: 1024}

	calls := 0
	r := gin.New()
	r.GET("/search", ResponseCache(cache, opts, "search"), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.PUT("/providers/my", InvalidateCache(cache, opts.Prefix, "search"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/search?city=Utrecht", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = perform(r, http.MethodGet, "/search?city=Utrecht", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	w = perform(r, http.MethodGet, "/search?city=Leiden", nil)
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())

	w = perform(r, http.MethodGet, "/search?city=Utrecht", map[string]string{"Authorization": "Bearer x"})
	assert.JSONEq(t, `{"calls":3}`, w.Body.String())

	perform(r, http.MethodPut, "/providers/my", nil)
	w = perform(r, http.MethodGet, "/search?city=Utrecht", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":4}`, w.Body.String())
}
