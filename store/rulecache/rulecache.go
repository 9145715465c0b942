// Package rulecache deduplicates rule-source reloads. Hot-reload sources
// (etcd watches, polling file readers) routinely deliver the same bytes
// more than once; recompiling identical rule source on every delivery
// would otherwise churn the engine's compiled table for no reason.
package rulecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Cache remembers the content hash of the most recently seen rule source
// per collection. Entries never expire on their own — the same caching
// posture the teacher used for its own bigcache (CleanWindow disabled) —
// since a collection's digest is only ever superseded by a newer Seen
// call for that same collection, never aged out by time.
type Cache struct {
	cache *bigcache.BigCache
}

// New builds a Cache. ttl bounds bigcache's internal eviction window;
// pass a long horizon (the teacher used a year) since entries are
// superseded, not expired.
func New(ctx context.Context, ttl time.Duration) (*Cache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = -1
	bc, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Cache{cache: bc}, nil
}

// Seen reports whether raw is identical to the last content observed for
// collection, recording raw's digest as the new baseline either way.
func (c *Cache) Seen(collection string, raw []byte) bool {
	sum := digest(raw)
	prev, err := c.cache.Get(collection)
	_ = c.cache.Set(collection, []byte(sum))
	return err == nil && string(prev) == sum
}

func digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
