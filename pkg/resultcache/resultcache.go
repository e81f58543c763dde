// Package resultcache caches detection results on disk with thundering herd prevention.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"
)

// Stats tracks cache hit/miss counts.
type Stats struct {
	Hits   int64
	Misses int64
}

// Cacher allows callers to supply their own cache.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	TTL() time.Duration
}

// Cache wraps sfcache for detection results.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Cache persisted under the user cache directory.
func New(ttl time.Duration) (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return NewWithPath(ttl, filepath.Join(cacheDir, "sociolink"))
}

// NewNull creates a Cache with no disk persistence. Entries still live in
// the in-memory tier for the life of the Cache and are lost on Close.
func NewNull() *Cache {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte]())
	if err != nil {
		panic("sfcache.NewTiered with null store: " + err.Error())
	}
	return &Cache{TieredCache: tc}
}

// NewWithPath creates a Cache persisted at cachePath.
func NewWithPath(ttl time.Duration, cachePath string) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	persist, err := localfs.New[string, []byte]("sociolink", cachePath)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](persist, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{TieredCache: tc, ttl: ttl}, nil
}

// TTL returns the default TTL for entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Stats returns the hit/miss counts recorded by Fetch.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Key hashes parts into a cache key. Parts are joined with a separator that
// cannot appear in JSON text, so ("a","bc") and ("ab","c") differ.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// Fetch returns the value cached under key, computing and storing it on a
// miss. Concurrent callers for the same key share one computation.
// A nil cache always computes.
func Fetch[T any](ctx context.Context, c Cacher, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return compute(ctx)
	}

	var computed bool
	var fresh T
	data, err := c.GetSet(ctx, key, func(ctx context.Context) ([]byte, error) {
		computed = true
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		fresh = v
		return json.Marshal(v)
	}, c.TTL())
	if err != nil {
		return zero, err
	}
	if sc, ok := c.(*Cache); ok {
		if computed {
			sc.misses.Add(1)
		} else {
			sc.hits.Add(1)
		}
	}
	if computed {
		return fresh, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, fmt.Errorf("decode cached value: %w", err)
	}
	return v, nil
}
