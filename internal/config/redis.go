package config

import (
	"context"
	"crypto/tls"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig описывает подключение к Redis (кэш ответов и лимиты запросов).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// CacheConfig задаёт поведение кэша публичных ответов.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// RabbitMQConfig описывает брокер для очереди почтовых событий.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

func loadRedisConfig() RedisConfig {
	addr := getEnv("REDIS_ADDR", "")
	host := getEnv("REDIS_HOST", "")
	port := getEnv("REDIS_PORT", "")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	dbNum := 0
	if raw := getEnv("REDIS_DB", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			dbNum = n
		}
	}

	tlsRaw := getEnv("REDIS_TLS", "")
	return RedisConfig{
		Addr:     addr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       dbNum,
		TLS:      strings.EqualFold(tlsRaw, "true") || tlsRaw == "1",
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getEnv("CACHE_ENABLED", "true") == "true",
		TTL:          mustParseDuration(getEnv("CACHE_TTL", "30s")),
		Prefix:       getEnv("CACHE_PREFIX", "lingora:cache"),
		MaxBodyBytes: int(mustParseInt64(getEnv("CACHE_MAX_BODY_BYTES", "1048576"))),
	}
}

// NewRedisClient создаёт клиента Redis. Возвращает nil, если сервер недоступен:
// тогда кэш отключается, а лимиты считаются в памяти процесса.
func NewRedisClient(ctx context.Context, cfg RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
