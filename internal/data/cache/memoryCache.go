package cache

import (
	"context"
	"sync"
	"time"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

type memoryEntry struct {
	answer  buildingModel.Answer
	expires time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryCache is the fallback when redis is not available. Entries expire
// lazily on read; good enough for a single process.
func NewMemoryCache(ttl time.Duration) ResponseCache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (*buildingModel.Answer, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	answer := entry.answer
	answer.Cached = true
	return &answer, nil
}

func (c *memoryCache) Set(_ context.Context, key string, answer *buildingModel.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		answer:  *answer,
		expires: time.Now().Add(c.ttl),
	}
	return nil
}

func (c *memoryCache) Ping(context.Context) error {
	return nil
}
