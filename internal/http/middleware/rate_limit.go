package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/lingora/lingora-backend/internal/logger"
)

// NewLimiterStore возвращает хранилище счётчиков в Redis, а без Redis в памяти процесса.
func NewLimiterStore(rdb *redis.Client, prefix string) limiter.Store {
	if rdb != nil {
		store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
			Prefix:   prefix,
			MaxRetry: 3,
		})
		if err == nil {
			return store
		}
		logger.Component("ratelimit").WithError(err).Warn("ratelimit: Redis недоступен, счётчики в памяти")
	}
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})
}

// RateLimitMiddleware ограничивает количество запросов с одного IP.
// name разделяет счётчики разных групп маршрутов в общем хранилище.
func RateLimitMiddleware(store limiter.Store, name string, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Hour
	}

	instance := limiter.New(store, limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		key := name + ":" + c.ClientIP()
		lctx, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			logger.Component("ratelimit").WithError(err).Warn("ratelimit: не удалось получить счётчик")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			c.Header("Retry-After", strconv.FormatInt(max(lctx.Reset-time.Now().Unix(), 1), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "слишком много запросов, попробуйте позже",
			})
			return
		}

		c.Next()
	}
}
