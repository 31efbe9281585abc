package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sdnegeri1godegan/library/pkg/api"
)

// Memory is the in-process result cache. Entries expire lazily on lookup;
// there is no background sweep.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
}

type memoryEntry struct {
	env      api.Envelope
	storedAt time.Time
}

// NewMemory builds a memory cache. A ttl <= 0 falls back to DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrFetch returns the cached envelope when fresh, otherwise runs fetch
// once (concurrent callers for the same key share one in-flight fetch) and
// keeps the result. Failed envelopes are never kept, so a transient outage
// heals on the next call.
func (c *Memory) GetOrFetch(ctx context.Context, key string, fetch Fetcher) api.Envelope {
	if env, ok := c.lookup(key); ok {
		return env
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		if env, ok := c.lookup(key); ok {
			return env, nil
		}
		env := fetch(ctx)
		if env.Success {
			c.store(key, env)
		}
		return env, nil
	})
	return v.(api.Envelope)
}

// Invalidate drops one key.
func (c *Memory) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops everything, for use after mutating operations with
// wide read impact.
func (c *Memory) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

func (c *Memory) lookup(key string) (api.Envelope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return api.Envelope{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return api.Envelope{}, false
	}
	return e.env, true
}

func (c *Memory) store(key string, env api.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{env: env, storedAt: c.now()}
}
