// Package cache 提供带 TTL 的进程内缓存。
package cache

import (
	"sync"
	"time"
)

// TTLCache 带过期时间的内存缓存
//
// 用于缓存变化极少的上游查询结果（如临时邮箱服务的可用域名），
// 避免每次开号流程都多打一次上游请求。
type TTLCache struct {
	data sync.Map
	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

type entry struct {
	value     string
	expiresAt time.Time
}

// NewTTLCache 创建缓存
func NewTTLCache(ttl time.Duration) *TTLCache {
	c := &TTLCache{
		ttl:  ttl,
		stop: make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Get 获取缓存值，过期条目视为不存在
func (c *TTLCache) Get(key string) (string, bool) {
	val, ok := c.data.Load(key)
	if !ok {
		return "", false
	}

	e := val.(*entry)
	if time.Now().After(e.expiresAt) {
		c.data.Delete(key)
		return "", false
	}

	return e.value, true
}

// Set 写入缓存值，使用缓存的默认 TTL
func (c *TTLCache) Set(key, value string) {
	c.data.Store(key, &entry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Delete 删除缓存值
func (c *TTLCache) Delete(key string) {
	c.data.Delete(key)
}

// Close 停止后台清理
func (c *TTLCache) Close() {
	c.once.Do(func() {
		close(c.stop)
	})
}

// cleanupLoop 定期清理过期条目
func (c *TTLCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.data.Range(func(key, value interface{}) bool {
				if now.After(value.(*entry).expiresAt) {
					c.data.Delete(key)
				}
				return true
			})
		}
	}
}
