package cache

import (
	"context"
	"path"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache implements Service with a size-bounded LRU. Values are stored encoded,
// so readers never share memory with writers.
type MemoryCache struct {
	mu         sync.Mutex
	lru        *lru.Cache[string, *memoryEntry]
	defaultTTL time.Duration
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) (*MemoryCache, error) {
	cfg := &MemoryConfig{
		MaxSize:    1000,
		DefaultTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c, err := lru.New[string, *memoryEntry](cfg.MaxSize)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: c, defaultTTL: cfg.DefaultTTL}, nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = mc.defaultTTL
	}
	entry := &memoryEntry{data: append([]byte(nil), data...)}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	mc.mu.Lock()
	mc.lru.Add(key, entry)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	entry, ok := mc.lru.Get(key)
	if ok && entry.expired(time.Now()) {
		mc.lru.Remove(key)
		ok = false
	}
	mc.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return decode(entry.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		mc.lru.Remove(key)
	}
	return nil
}

// DeleteByPattern removes keys matching a glob pattern such as "forecast:*".
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range mc.lru.Keys() {
		if ok, _ := path.Match(pattern, key); ok {
			mc.lru.Remove(key)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := time.Now()
	for _, key := range keys {
		if entry, ok := mc.lru.Peek(key); ok && !entry.expired(now) {
			return true, nil
		}
	}
	return false, nil
}

// Len reports the number of live and expired-but-unreaped entries.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lru.Len()
}

func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	mc.lru.Purge()
	mc.mu.Unlock()
	return nil
}
