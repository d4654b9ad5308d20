package data

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/biz"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/conf"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/cache"
	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/resilience"
)

// RedisResultCache 基于 Redis 的结果缓存，读写经过熔断器
type RedisResultCache struct {
	store   cache.Cache
	breaker *resilience.Breaker
}

var _ biz.ResultCache = (*RedisResultCache)(nil)

// NewRedisClient 根据配置创建 Redis 客户端，未启用时返回 nil
func NewRedisClient(cfg *conf.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client := cache.NewRedisClient(cache.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// NewRedisResultCache 创建 Redis 结果缓存
func NewRedisResultCache(store cache.Cache, breaker *resilience.Breaker) *RedisResultCache {
	return &RedisResultCache{store: store, breaker: breaker}
}

// Get 获取缓存值，未命中返回 ok=false
func (c *RedisResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.breaker.Do(func() error {
		var err error
		data, err = c.store.GetBytes(ctx, key)
		return err
	})
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set 设置缓存值
func (c *RedisResultCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.breaker.Do(func() error {
		return c.store.SetBytes(ctx, key, value, ttl)
	})
}

// NewResultCache 按配置选择缓存后端
func NewResultCache(cfg *conf.Config, client *redis.Client, logger *zap.Logger) (biz.ResultCache, func()) {
	if cfg.Cache.Backend == conf.CacheBackendRedis && client != nil {
		breakerCfg := resilience.BreakerConfig{
			Name:         "redis-result-cache",
			MaxRequests:  cfg.Resilience.CircuitBreaker.MaxRequests,
			Interval:     cfg.Resilience.CircuitBreaker.Interval,
			Timeout:      cfg.Resilience.CircuitBreaker.Timeout,
			MinRequests:  cfg.Resilience.CircuitBreaker.MinRequests,
			FailureRatio: cfg.Resilience.CircuitBreaker.FailureRatio,
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, cache.ErrCacheMiss)
			},
		}
		store := cache.NewRedisCache(client, cache.CacheOptions{
			DefaultTTL: cfg.Cache.MetricTTL,
			KeyPrefix:  cfg.Cache.KeyPrefix,
		})
		logger.Info("using redis result cache", zap.String("addr", cfg.Redis.Addr))
		// 客户端由 NewRedisClient 的清理函数关闭
		return NewRedisResultCache(store, resilience.NewBreaker(breakerCfg, logger)), func() {}
	}

	memory := NewMemoryCache(cfg.Cache.MaxEntries)
	logger.Info("using in-memory result cache", zap.Int("max_entries", cfg.Cache.MaxEntries))
	return memory, memory.Close
}
