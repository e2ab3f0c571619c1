package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var (
	instance *redisCache
	mu       sync.Mutex
	logger   *logger_i.Logger
	once     sync.Once
)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// GetRedisCache returns the shared response cache, creating the client on
// first use. Returns nil when redis cannot be reached; callers fall back to
// the in-memory cache.
func GetRedisCache(ctx context.Context) ResponseCache {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}
	return createCache(ctx)
}

func initLogger() {
	if logger == nil {
		logger = logger_i.NewLogger("Response Cache")
	}
}

func closeRedisCache(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing response cache")
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		if err := instance.client.Close(); err != nil {
			logger.Error("Error closing redis client", "error", err)
		}
		instance = nil
	}
}

func createCache(ctx context.Context) ResponseCache {
	initLogger()

	client := redis.NewClient(&redis.Options{
		Addr:                  config.RedisAddr,
		Password:              config.RedisPassword,
		DB:                    config.RedisDB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           config.RedisReadTimeout,
		WriteTimeout:          config.RedisWriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline", "error", err.Error())
		return nil
	}

	logger.Info("Response cache init successfully", "ttl", config.CacheTTL)

	instance = &redisCache{
		client: client,
		ttl:    config.CacheTTL,
	}
	once.Do(func() {
		go closeRedisCache(ctx)
	})
	return instance
}

func (c *redisCache) Get(ctx context.Context, key string) (*buildingModel.Answer, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var answer buildingModel.Answer
	if err := json.Unmarshal(payload, &answer); err != nil {
		// A corrupted entry is treated as a miss and overwritten on Set.
		logger.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		return nil, nil
	}
	answer.Cached = true
	return &answer, nil
}

func (c *redisCache) Set(ctx context.Context, key string, answer *buildingModel.Answer) error {
	payload, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NewTestCache wires an externally owned client, for tests against miniredis.
func NewTestCache(client *redis.Client, ttl time.Duration) ResponseCache {
	initLogger()
	return &redisCache{client: client, ttl: ttl}
}
