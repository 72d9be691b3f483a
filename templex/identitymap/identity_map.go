// Package identitymap caches entities by reference so that an entity is
// fetched at most once per evaluation batch.
package identitymap

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/value"
)

// IsolationLevel controls what the identity map remembers.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota // Identity map is disabled
	ReadCommitted                         // Identity map is disabled
	RepeatableReads                       // Prevents repeated fetches of existent entities only
	Serializable                          // Prevents repeated fetches of both existent and nonexistent entities
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "read-uncommitted"
	case ReadCommitted:
		return "read-committed"
	case RepeatableReads:
		return "repeatable-reads"
	default:
		return "serializable"
	}
}

type entry[V any] struct {
	value  V
	absent bool
}

// IdentityMap is safe for concurrent use.
type IdentityMap[V any] struct {
	mu       sync.RWMutex
	cache    *lru.Cache[value.EntityRef, entry[V]]
	strategy isolationStrategy[V]
}

func New[V any](size int, level IsolationLevel) (*IdentityMap[V], error) {
	cache, err := lru.New[value.EntityRef, entry[V]](size)
	if err != nil {
		return nil, errors.Wrap(err, "identitymap")
	}
	m := &IdentityMap[V]{cache: cache}
	m.SetIsolationLevel(level)
	return m, nil
}

func (m *IdentityMap[V]) SetIsolationLevel(level IsolationLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch level {
	case ReadUncommitted, ReadCommitted:
		m.strategy = disabledStrategy[V]{}
	case RepeatableReads:
		m.strategy = repeatableReadsStrategy[V]{cache: m.cache}
	default:
		m.strategy = serializableStrategy[V]{repeatableReadsStrategy[V]{cache: m.cache}}
	}
}

func (m *IdentityMap[V]) current() isolationStrategy[V] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.strategy
}

// Resize changes the capacity, evicting the least recently used entries.
func (m *IdentityMap[V]) Resize(size int) (evicted int) {
	return m.cache.Resize(size)
}

func (m *IdentityMap[V]) Len() int {
	return m.cache.Len()
}

func (m *IdentityMap[V]) Clear() {
	m.cache.Purge()
}

// Add stores a fetched entity.
func (m *IdentityMap[V]) Add(ref value.EntityRef, v V) {
	m.current().add(ref, v)
}

// AddAbsent records that ref was fetched but does not exist.
// Only effective with Serializable isolation level.
func (m *IdentityMap[V]) AddAbsent(ref value.EntityRef) {
	m.current().addAbsent(ref)
}

// Get returns ErrKeyNotFound for an unknown ref and ErrObjectNotFound for a
// ref known to be absent.
func (m *IdentityMap[V]) Get(ref value.EntityRef) (V, error) {
	return m.current().get(ref)
}

// Has reports whether ref needs no fetch, either because it is cached or
// because it is known to be absent.
func (m *IdentityMap[V]) Has(ref value.EntityRef) bool {
	return m.current().has(ref)
}

func (m *IdentityMap[V]) Remove(ref value.EntityRef) {
	m.cache.Remove(ref)
}
