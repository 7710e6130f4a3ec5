package imgla

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 32
	defaultCacheTTL  = 5 * time.Minute
)

// Cache holds album and strategy listings per instance and token. One Cache
// is shared by every Client built for the same process.
type Cache struct {
	albums     *expirable.LRU[string, []Album]
	strategies *expirable.LRU[string, []Strategy]
}

// NewCache creates a cache. Non-positive values fall back to 32 entries and
// five minutes.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		albums:     expirable.NewLRU[string, []Album](size, nil, ttl),
		strategies: expirable.NewLRU[string, []Strategy](size, nil, ttl),
	}
}

// Purge drops every cached listing.
func (c *Cache) Purge() {
	c.albums.Purge()
	c.strategies.Purge()
}

// cacheKey keeps tokens out of memory dumps of the cache keys.
func cacheKey(baseURL, token string) string {
	sum := sha256.Sum256([]byte(token))
	return baseURL + "|" + hex.EncodeToString(sum[:8])
}
