package data

import (
	"context"
	"sync"
	"time"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/cmd/analytics-service/internal/biz"
)

type cacheItem struct {
	value      []byte
	expiration time.Time
}

// MemoryCache 进程内结果缓存，带过期清理和容量上限
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]cacheItem
	maxEntries int
	now        func() time.Time

	hits   int64
	misses int64

	stop chan struct{}
	once sync.Once
}

var _ biz.ResultCache = (*MemoryCache)(nil)

// CacheStats 缓存统计
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewMemoryCache 创建内存缓存，maxEntries <= 0 表示不限容量
func NewMemoryCache(maxEntries int) *MemoryCache {
	return newMemoryCache(maxEntries, time.Now)
}

func newMemoryCache(maxEntries int, now func() time.Time) *MemoryCache {
	cache := &MemoryCache{
		items:      make(map[string]cacheItem),
		maxEntries: maxEntries,
		now:        now,
		stop:       make(chan struct{}),
	}

	go cache.cleanupLoop(time.Minute)

	return cache
}

// Get 获取缓存值
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok || !c.now().Before(item.expiration) {
		if ok {
			delete(c.items, key)
		}
		c.misses++
		return nil, false, nil
	}
	c.hits++
	return item.value, true, nil
}

// Set 设置缓存值
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictLocked()
	}
	c.items[key] = cacheItem{
		value:      append([]byte(nil), value...),
		expiration: c.now().Add(ttl),
	}
	return nil
}

// Stats 返回统计信息
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.items), Hits: c.hits, Misses: c.misses}
}

// Close 停止清理 goroutine
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// evictLocked 先清理过期项，仍然已满时淘汰最早过期的一项
func (c *MemoryCache) evictLocked() {
	c.removeExpiredLocked()
	if len(c.items) < c.maxEntries {
		return
	}

	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, item := range c.items {
		if !found || item.expiration.Before(oldest) {
			oldestKey, oldest, found = k, item.expiration, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}

func (c *MemoryCache) removeExpiredLocked() {
	now := c.now()
	for k, item := range c.items {
		if !now.Before(item.expiration) {
			delete(c.items, k)
		}
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.removeExpiredLocked()
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
