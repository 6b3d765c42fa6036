// Package cache provides a TTL cache for built source indices, so repeated
// validations against the same source-of-truth dataset skip re-indexing.
// It is an explicit collaborator injected at the engine boundary; the
// engine itself stays stateless.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sahelgroup/recon-cli/internal/reconcile"
)

type item struct {
	idx     *reconcile.SourceIndex
	expires time.Time
}

// SourceCache caches source indices keyed by caller-supplied identity
// (file path, upload hash, dataset id). Safe for concurrent use.
type SourceCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]item
}

// New returns a cache whose entries expire after ttl.
func New(ttl time.Duration) *SourceCache {
	return &SourceCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]item),
	}
}

// Get returns the cached index for key, if present and unexpired.
func (c *SourceCache) Get(key string) (*reconcile.SourceIndex, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(it.expires) {
		delete(c.items, key)
		return nil, false
	}
	return it.idx, true
}

// Put stores an index under key, replacing any previous entry and pruning
// expired ones.
func (c *SourceCache) Put(key string, idx *reconcile.SourceIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, it := range c.items {
		if now.After(it.expires) {
			delete(c.items, k)
		}
	}

	c.items[key] = item{idx: idx, expires: now.Add(c.ttl)}
	zap.L().Debug("source index cached",
		zap.String("key", key),
		zap.Int("records", idx.Size()),
	)
}

// Len returns the number of live entries.
func (c *SourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
