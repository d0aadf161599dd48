package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a typed in-process TTL cache.
type Memory[V any] struct {
	cache *gocache.Cache
}

// NewMemory creates a cache whose entries expire after ttl. A zero ttl
// disables expiry.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	cleanup := ttl * 2
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &Memory[V]{cache: gocache.New(ttl, cleanup)}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	if v, found := m.cache.Get(key); found {
		if typed, ok := v.(V); ok {
			return typed, true
		}
	}
	var zero V
	return zero, false
}

// Set stores value under the default TTL.
func (m *Memory[V]) Set(key string, value V) {
	m.cache.SetDefault(key, value)
}

func (m *Memory[V]) Delete(key string) {
	m.cache.Delete(key)
}

func (m *Memory[V]) Len() int {
	return m.cache.ItemCount()
}

func (m *Memory[V]) Flush() {
	m.cache.Flush()
}
