package diff

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes results by object contents and symbol, so a rebuild that
// produces an identical object skips the tool.
type Cache struct {
	entries *lru.Cache[string, Result]
}

// NewCache creates a cache holding up to size results.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Key derives the cache key for one comparison.
func Key(expected, current []byte, symbol string) string {
	h := sha256.New()
	for _, part := range [][]byte{expected, current, []byte(symbol)} {
		sum := sha256.Sum256(part)
		h.Write(sum[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached result. A nil cache always misses.
func (c *Cache) Get(key string) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	return c.entries.Get(key)
}

// Add stores a result. A nil cache ignores it.
func (c *Cache) Add(key string, result Result) {
	if c == nil {
		return
	}
	c.entries.Add(key, result)
}

// Len reports the number of cached results.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
