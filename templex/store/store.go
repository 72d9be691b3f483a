// Package store defines how the engine reads entities.
package store

import (
	"context"

	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/value"
)

// Request asks for one root entity and every entity reachable from it along
// Paths. Paths are relative to the root and may end in a scalar property.
type Request struct {
	Ref   value.EntityRef
	Paths []path.Path
}

// Entity carries every property of one entity. A navigation property holds
// an Entity value or Null.
type Entity struct {
	Ref    value.EntityRef
	Fields map[string]value.Value
}

// Field returns the named property. ok is false when the entity lacks it.
func (e *Entity) Field(name string) (v value.Value, ok bool) {
	v, ok = e.Fields[name]
	return v, ok
}

// Store fetches entities. One call is one round trip. The result holds each
// existing root and each existing entity reached along the requested paths,
// in any order and without duplicates. Nonexistent entities are omitted.
type Store interface {
	Fetch(ctx context.Context, requests []Request) ([]*Entity, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, requests []Request) ([]*Entity, error)

func (f StoreFunc) Fetch(ctx context.Context, requests []Request) ([]*Entity, error) {
	return f(ctx, requests)
}

// Merge combines requests for the same root, keeping the first occurrence
// order of roots and paths.
func Merge(requests []Request) []Request {
	index := make(map[value.EntityRef]int, len(requests))
	seen := make(map[value.EntityRef]map[path.Path]struct{}, len(requests))
	var result []Request
	for _, r := range requests {
		i, ok := index[r.Ref]
		if !ok {
			i = len(result)
			index[r.Ref] = i
			seen[r.Ref] = make(map[path.Path]struct{})
			result = append(result, Request{Ref: r.Ref})
		}
		for _, p := range r.Paths {
			if _, dup := seen[r.Ref][p]; dup {
				continue
			}
			seen[r.Ref][p] = struct{}{}
			result[i].Paths = append(result[i].Paths, p)
		}
	}
	return result
}
