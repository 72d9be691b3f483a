package masktrie

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry[V any] struct {
	trie  *Trie
	value V
}

// Cache maps structurally equal tries to a single compiled value, so two
// principals granted the identical path set share one trie instance and one
// compiled filter. Entries are bucketed by Hash and resolved with Comparer.
type Cache[V any] struct {
	mu       sync.Mutex
	buckets  *lru.Cache[uint64, []cacheEntry[V]]
	comparer Comparer
}

func NewCache[V any](size int) (*Cache[V], error) {
	buckets, err := lru.New[uint64, []cacheEntry[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{buckets: buckets}, nil
}

// GetOrCompile returns the value cached for any trie equal to t, compiling
// and storing it on a miss. The second result is the canonical trie the
// value was compiled from.
func (c *Cache[V]) GetOrCompile(t *Trie, compile func(*Trie) (V, error)) (V, *Trie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.comparer.Hash(t)
	bucket, _ := c.buckets.Get(h)
	for _, entry := range bucket {
		if c.comparer.Equal(entry.trie, t) {
			return entry.value, entry.trie, nil
		}
	}
	value, err := compile(t)
	if err != nil {
		var zero V
		return zero, nil, err
	}
	bucket = append(bucket[:len(bucket):len(bucket)], cacheEntry[V]{trie: t, value: value})
	c.buckets.Add(h, bucket)
	return value, t, nil
}

// Len counts distinct tries held.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, h := range c.buckets.Keys() {
		bucket, _ := c.buckets.Peek(h)
		n += len(bucket)
	}
	return n
}

func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets.Purge()
}
