// Package rulecache provides a bounded ProgramCache for rule evaluators.
package rulecache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	settings "github.com/mldkyt/go-settings"
)

// DefaultSize is the number of compiled programs kept when New is given zero.
const DefaultSize = 512

var _ settings.ProgramCache = (*Cache)(nil)

// Cache keeps compiled programs keyed by expression, evicting the least
// valuable entries once size programs are held.
type Cache struct {
	cache *ristretto.Cache
}

// New returns a cache holding at most size programs.
func New(size int64) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("rulecache: %w", err)
	}
	return &Cache{cache: cache}, nil
}

func (c *Cache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

// Set stores value. Admission is asynchronous and may drop the entry under
// contention; callers recompile on a miss.
func (c *Cache) Set(key string, value any) {
	c.cache.Set(key, value, 1)
}

// Wait blocks until pending sets are applied.
func (c *Cache) Wait() {
	c.cache.Wait()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.cache.Close()
}
