package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/cache/port"

	lru "github.com/hashicorp/golang-lru"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a size-bounded in-process port.Cache used when no Redis
// deployment is configured.
type MemoryCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	now   func() time.Time
}

var _ port.Cache = (*MemoryCache)(nil)

func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{cache: c, now: time.Now}, nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.cache.Get(key)
	if !ok {
		return "", port.ErrMiss
	}
	entry := v.(cacheEntry)
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		return "", port.ErrMiss
	}
	return entry.value, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.cache.Add(key, entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Del(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if m.cache.Remove(k) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.cache.Purge()
	m.mu.Unlock()
	return nil
}
