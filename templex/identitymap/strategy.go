package identitymap

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/krew-solutions/templex-go/templex/value"
)

type isolationStrategy[V any] interface {
	add(ref value.EntityRef, v V)
	addAbsent(ref value.EntityRef)
	get(ref value.EntityRef) (V, error)
	has(ref value.EntityRef) bool
}

// disabledStrategy serves ReadUncommitted and ReadCommitted.
type disabledStrategy[V any] struct{}

func (disabledStrategy[V]) add(value.EntityRef, V)    {}
func (disabledStrategy[V]) addAbsent(value.EntityRef) {}
func (disabledStrategy[V]) has(value.EntityRef) bool  { return false }
func (disabledStrategy[V]) get(value.EntityRef) (V, error) {
	var zero V
	return zero, ErrKeyNotFound
}

type repeatableReadsStrategy[V any] struct {
	cache *lru.Cache[value.EntityRef, entry[V]]
}

func (s repeatableReadsStrategy[V]) add(ref value.EntityRef, v V) {
	s.cache.Add(ref, entry[V]{value: v})
}

func (s repeatableReadsStrategy[V]) addAbsent(value.EntityRef) {}

func (s repeatableReadsStrategy[V]) get(ref value.EntityRef) (V, error) {
	var zero V
	e, ok := s.cache.Get(ref)
	if !ok {
		return zero, ErrKeyNotFound
	}
	if e.absent {
		return zero, ErrObjectNotFound
	}
	return e.value, nil
}

func (s repeatableReadsStrategy[V]) has(ref value.EntityRef) bool {
	e, ok := s.cache.Peek(ref)
	return ok && !e.absent
}

// serializableStrategy also remembers nonexistent entities.
type serializableStrategy[V any] struct {
	repeatableReadsStrategy[V]
}

func (s serializableStrategy[V]) addAbsent(ref value.EntityRef) {
	s.cache.Add(ref, entry[V]{absent: true})
}

func (s serializableStrategy[V]) has(ref value.EntityRef) bool {
	return s.cache.Contains(ref)
}
