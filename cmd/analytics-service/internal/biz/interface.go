package biz

import (
	"context"
	"time"
)

// ResultCache 指标结果缓存接口
type ResultCache interface {
	// Get 返回缓存内容，未命中时 ok 为 false
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set 写入缓存
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NoopCache 不缓存
type NoopCache struct{}

// Get 总是未命中
func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set 忽略写入
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
