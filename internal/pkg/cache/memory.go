package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Cache = (*memoryCache)(nil)

// memoryCache is an in-process Cache for local development and tests, used
// when no Redis address is configured.
type memoryCache struct {
	mu          sync.Mutex
	serviceName string
	entries     map[string]memoryEntry
	now         func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func NewMemoryCache(serviceName string) Cache {
	return &memoryCache{
		serviceName: serviceName,
		entries:     make(map[string]memoryEntry),
		now:         time.Now,
	}
}

func (m *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: fmt.Sprint(value)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (m *memoryCache) GenerateKey(operation, key string) string {
	return generateKey(m.serviceName, operation, key)
}
