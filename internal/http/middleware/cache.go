package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lingora/lingora-backend/internal/service"
)

// CacheOptions настройки кэша ответов.
type CacheOptions struct {
	Prefix       string
	TTL          time.Duration
	MaxBodyBytes int
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter копирует тело ответа, продолжая писать его клиенту.
type captureWriter struct {
	gin.ResponseWriter
	buf      bytes.Buffer
	overflow bool
	limit    int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// CacheKey ключ записи для группы маршрутов: prefix:group:sha1(path?query).
func CacheKey(prefix, group string, r *http.Request) string {
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%s:%x", prefix, group, sum[:])
}

// CacheGroupPrefix префикс всех ключей группы для инвалидации.
func CacheGroupPrefix(prefix, group string) string {
	return prefix + ":" + group + ":"
}

// ResponseCache кэширует успешные GET ответы группы маршрутов.
// Запросы с заголовком Authorization не кэшируются: ответ может зависеть от пользователя.
func ResponseCache(cache service.ResponseCache, opts CacheOptions, group string) gin.HandlerFunc {
	if cache == nil || opts.TTL <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := CacheKey(opts.Prefix, group, c.Request)

		if raw, ok := cache.Get(ctx, key); ok {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.Header("X-Cache", "HIT")
				c.Data(cached.Status, cached.ContentType, cached.Body)
				c.Abort()
				return
			}
		}

		cw := &captureWriter{ResponseWriter: c.Writer, limit: opts.MaxBodyBytes}
		c.Writer = cw
		c.Header("X-Cache", "MISS")
		c.Next()

		if cw.Status() != http.StatusOK || cw.overflow {
			return
		}
		payload, err := json.Marshal(cachedResponse{
			Status:      http.StatusOK,
			ContentType: cw.Header().Get("Content-Type"),
			Body:        cw.buf.Bytes(),
		})
		if err != nil {
			return
		}
		cache.Set(ctx, key, payload, opts.TTL)
	}
}

// InvalidateCache сбрасывает кэш перечисленных групп после успешного изменяющего запроса.
func InvalidateCache(cache service.ResponseCache, prefix string, groups ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if cache == nil || c.Request.Method == http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		for _, g := range groups {
			cache.InvalidateByPrefix(c.Request.Context(), CacheGroupPrefix(prefix, g))
		}
	}
}
