package mustache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// Cache memoizes parsed templates keyed by source text and the delimiter
// pair parsing starts with. It has no eviction policy; entries live until
// [Cache.Clear].
//
// A Cache is safe for concurrent use, and a given (source, delimiters) pair
// is parsed at most once no matter how many goroutines request it.
type Cache struct {
	mu      sync.Mutex
	buckets map[uint64][]*entry
	size    int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats is a snapshot of cache activity.
type CacheStats struct {
	Entries int    `json:"entries" yaml:"entries"`
	Hits    uint64 `json:"hits"    yaml:"hits"`
	Misses  uint64 `json:"misses"  yaml:"misses"`
}

type entry struct {
	source string
	delims Delimiters

	once sync.Once
	tmpl *Template
	err  error
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{buckets: make(map[uint64][]*entry)}
}

// GetOrParse returns the template for source parsed with delims, parsing and
// storing it on first use. Parse failures are stored as well.
func (c *Cache) GetOrParse(
	_ context.Context,
	source string,
	delims Delimiters,
) (*Template, error) {
	t, _, err := c.load(source, delims)

	return t, err
}

// load is GetOrParse that also reports whether the entry already existed.
func (c *Cache) load(source string, delims Delimiters) (*Template, bool, error) {
	key := hashKey(source, delims)

	c.mu.Lock()

	if c.buckets == nil {
		c.buckets = make(map[uint64][]*entry)
	}

	var (
		e   *entry
		hit bool
	)

	for _, b := range c.buckets[key] {
		if b.source == source && b.delims == delims {
			e, hit = b, true

			break
		}
	}

	if !hit {
		e = &entry{source: source, delims: delims}
		c.buckets[key] = append(c.buckets[key], e)
		c.size++
	}

	c.mu.Unlock()

	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}

	e.once.Do(func() {
		e.tmpl, e.err = parse(source, delims)
	})

	return e.tmpl, hit, e.err
}

// Clear removes every entry. Callers holding a *Template keep a valid
// template; it is simply no longer shared.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buckets = make(map[uint64][]*entry)
	c.size = 0
}

// Len returns the number of cached entries, including failed parses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

// Stats returns the current entry count and the hit and miss totals since
// the cache was created.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// hashKey hashes the delimiter pair and source. Lookups compare entries
// exactly, so a collision costs only a string comparison.
func hashKey(source string, delims Delimiters) uint64 {
	h := xxh3.New()

	_, _ = h.WriteString(delims.Open)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(delims.Close)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(source)

	return h.Sum64()
}
