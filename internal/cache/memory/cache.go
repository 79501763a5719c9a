package memory

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

type Config[K comparable, V any] struct {
	// CleanupInterval - как часто удалять просроченные записи, по умолчанию 5 минут
	CleanupInterval time.Duration
	// OnEvict вызывается для записей, удалённых по истечении TTL
	OnEvict func(key K, value V)
}

// Cache - простой in-memory кеш с TTL
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	items    map[K]item[V]
	onEvict  func(key K, value V)
	interval time.Duration
	stopChan chan struct{}
	stopped  bool
}

func NewWithContext[K comparable, V any](ctx context.Context, cfg Config[K, V]) *Cache[K, V] {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	c := &Cache[K, V]{
		items:    make(map[K]item[V]),
		onEvict:  cfg.OnEvict,
		interval: cfg.CleanupInterval,
		stopChan: make(chan struct{}),
	}
	go c.cleanup(ctx)
	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || time.Now().After(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = item[V]{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, it := range c.items {
		if !now.After(it.expiresAt) {
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
	}
	c.mu.Unlock()
}

func (c *Cache[K, V]) cleanup(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache[K, V]) removeExpired() {
	type evicted struct {
		key   K
		value V
	}

	c.mu.Lock()
	now := time.Now()
	var gone []evicted
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
			gone = append(gone, evicted{key: k, value: it.value})
		}
	}
	c.mu.Unlock()

	// колбэк вне лока, чтобы он мог обращаться к кешу
	if c.onEvict != nil {
		for _, e := range gone {
			c.onEvict(e.key, e.value)
		}
	}
}
