package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 键不存在或已过期
var ErrCacheMiss = errors.New("cache miss")

// Cache 字节缓存接口
type Cache interface {
	// GetBytes 获取字节数组，不存在时返回 ErrCacheMiss
	GetBytes(ctx context.Context, key string) ([]byte, error)

	// SetBytes 设置字节数组，ttl 为 0 时使用默认过期时间
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error

	// Close 关闭连接
	Close() error
}

// CacheOptions 缓存选项
type CacheOptions struct {
	// 默认过期时间
	DefaultTTL time.Duration

	// 键前缀
	KeyPrefix string
}
