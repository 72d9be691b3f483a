// Package memory is a Store over entities held in memory. It counts round
// trips so tests can assert on batching.
package memory

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/value"
)

type Store struct {
	mu       sync.RWMutex
	entities map[value.EntityRef]map[string]value.Value
	fetches  atomic.Int64
	requests atomic.Int64
	fail     error
}

func New() *Store {
	return &Store{entities: make(map[value.EntityRef]map[string]value.Value)}
}

// Put adds or replaces an entity.
func (s *Store) Put(ref value.EntityRef, fields map[string]value.Value) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[ref] = maps.Clone(fields)
	return s
}

func (s *Store) Delete(ref value.EntityRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, ref)
}

// FailWith makes every following Fetch return err. A nil err restores
// normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Fetches is the number of round trips served so far.
func (s *Store) Fetches() int {
	return int(s.fetches.Load())
}

// Requests is the number of requests received over all round trips.
func (s *Store) Requests() int {
	return int(s.requests.Load())
}

func (s *Store) ResetStats() {
	s.fetches.Store(0)
	s.requests.Store(0)
}

func (s *Store) Fetch(ctx context.Context, requests []store.Request) ([]*store.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.fetches.Add(1)
	s.requests.Add(int64(len(requests)))

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}

	seen := make(map[value.EntityRef]struct{})
	var result []*store.Entity
	load := func(ref value.EntityRef) (map[string]value.Value, bool) {
		fields, ok := s.entities[ref]
		if !ok {
			return nil, false
		}
		if _, dup := seen[ref]; !dup {
			seen[ref] = struct{}{}
			result = append(result, &store.Entity{Ref: ref, Fields: maps.Clone(fields)})
		}
		return fields, true
	}

	for _, r := range requests {
		root, ok := load(r.Ref)
		if !ok {
			continue
		}
		for _, p := range r.Paths {
			current := root
			for _, segment := range p.Segments() {
				ref, isRef := current[segment].Ref()
				if !isRef {
					break
				}
				if current, ok = load(ref); !ok {
					break
				}
			}
		}
	}
	return result, nil
}

var _ store.Store = (*Store)(nil)
