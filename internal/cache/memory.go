package cache

import (
	"encoding/binary"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

// memoryCache wraps hashicorp/golang-lru/v2/expirable to implement the Cache
// interface. The LRU's own TTL acts as the ceiling for entry lifetimes; the
// per-entry deadline is carried in an envelope prepended to the stored value
// and checked lazily on Get, since the expirable LRU only supports a single
// cache-wide TTL.
type memoryCache struct {
	inner      *lru.LRU[string, []byte]
	defaultTTL time.Duration
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	var onEvict func(string, []byte)
	if cfg.OnEvict != nil {
		onEvict = func(key string, value []byte) {
			cfg.OnEvict(key, unwrap(value))
		}
	}
	return &memoryCache{
		inner:      lru.NewLRU[string, []byte](cfg.Size, onEvict, cfg.DefaultTTL),
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

// wrap prepends the entry deadline (unix nanoseconds, big endian) to value.
func wrap(value []byte, deadline time.Time) []byte {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf, uint64(deadline.UnixNano()))
	copy(buf[8:], value)
	return buf
}

func unwrap(stored []byte) []byte {
	if len(stored) < 8 {
		return nil
	}
	return stored[8:]
}

func deadlineOf(stored []byte) time.Time {
	if len(stored) < 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(stored)))
}

func (m *memoryCache) Get(key string) ([]byte, bool) {
	stored, ok := m.inner.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(deadlineOf(stored)) {
		m.inner.Remove(key)
		return nil, false
	}
	return unwrap(stored), true
}

func (m *memoryCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 || (m.defaultTTL > 0 && ttl > m.defaultTTL) {
		ttl = m.defaultTTL
	}
	if ttl <= 0 {
		// No expiry configured at all; park the deadline far in the future.
		ttl = 100 * 365 * 24 * time.Hour
	}
	m.inner.Add(key, wrap(value, time.Now().Add(ttl)))
}

func (m *memoryCache) Contains(key string) bool {
	stored, ok := m.inner.Peek(key)
	return ok && !time.Now().After(deadlineOf(stored))
}

func (m *memoryCache) Len() int {
	return m.inner.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
