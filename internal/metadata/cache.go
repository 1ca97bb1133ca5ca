package metadata

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of remembered extraction results.
const DefaultCacheSize = 512

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

type cacheEntry struct {
	md  Metadata
	err error
}

// Cache memoizes a Source by path, size and modification time, so an
// unchanged file is decoded once per process even when the directory is
// re-scanned.
type Cache struct {
	source Source
	lru    *lru.Cache[cacheKey, cacheEntry]
}

// NewCache wraps source with an LRU of the given size (DefaultCacheSize if
// size <= 0).
func NewCache(source Source, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{source: source, lru: c}, nil
}

// Extract implements Source. Files that cannot be stat'ed bypass the cache.
func (c *Cache) Extract(path, ext string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return c.source.Extract(path, ext)
	}
	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if e, ok := c.lru.Get(key); ok {
		return e.md, e.err
	}
	md, err := c.source.Extract(path, ext)
	c.lru.Add(key, cacheEntry{md: md, err: err})
	return md, err
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.lru.Len()
}
