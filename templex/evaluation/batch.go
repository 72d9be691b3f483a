// Package evaluation resolves expression paths against entities fetched
// through a batch loader and cached for the lifetime of a batch.
package evaluation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/krew-solutions/templex-go/templex/batch"
	"github.com/krew-solutions/templex-go/templex/deferred"
	"github.com/krew-solutions/templex-go/templex/identitymap"
	"github.com/krew-solutions/templex-go/templex/path"
	"github.com/krew-solutions/templex-go/templex/store"
	"github.com/krew-solutions/templex-go/templex/value"
)

// Batch is the state shared by every row of one batch: the entity cache and
// the loader feeding it. It is safe for concurrent use.
type Batch struct {
	loader   *batch.Loader
	entities *identitymap.IdentityMap[*store.Entity]
}

func NewBatch(loader *batch.Loader, entities *identitymap.IdentityMap[*store.Entity]) *Batch {
	return &Batch{loader: loader, entities: entities}
}

// Context returns the view of the batch rooted at root.
func (b *Batch) Context(root value.EntityRef) *Context {
	return &Context{batch: b, root: root}
}

// Prefetch loads every root not yet cached, with everything reachable along
// paths, in one round trip.
func (b *Batch) Prefetch(ctx context.Context, roots []value.EntityRef, paths []path.Path) error {
	var requests []store.Request
	var results []deferred.Deferred[[]*store.Entity]
	for _, root := range roots {
		if b.entities.Has(root) {
			continue
		}
		r := store.Request{Ref: root, Paths: paths}
		requests = append(requests, r)
		results = append(results, b.loader.Load(r))
	}
	if len(requests) == 0 {
		return nil
	}
	// A concurrent Dispatch may have sent some of the requests already; the
	// deferreds settle either way.
	_ = b.loader.Dispatch(ctx)
	fetched, err := deferred.All(results).Await(ctx)
	if err != nil {
		return err
	}
	b.absorb(requests, fetched...)
	return nil
}

// entity returns the cached entity for ref, fetching it together with
// everything along rest on a miss. A nil entity means ref does not exist.
func (b *Batch) entity(ctx context.Context, ref value.EntityRef, rest path.Path) (*store.Entity, error) {
	e, err := b.entities.Get(ref)
	switch {
	case err == nil:
		return e, nil
	case errors.Is(err, identitymap.ErrObjectNotFound):
		return nil, nil
	}

	r := store.Request{Ref: ref}
	if !rest.IsZero() {
		r.Paths = []path.Path{rest}
	}
	result := b.loader.Load(r)
	_ = b.loader.Dispatch(ctx)
	entities, err := result.Await(ctx)
	if err != nil {
		return nil, err
	}
	b.absorb([]store.Request{r}, entities)
	for _, e := range entities {
		if e.Ref == ref {
			return e, nil
		}
	}
	return nil, nil
}

// absorb caches the fetched entities and records as absent every entity a
// request reached a reference to but the store did not return.
func (b *Batch) absorb(requests []store.Request, results ...[]*store.Entity) {
	found := make(map[value.EntityRef]*store.Entity)
	seen := make(map[**store.Entity]struct{}, 1)
	for _, entities := range results {
		if len(entities) == 0 {
			continue
		}
		// Requests dispatched together share one result slice.
		if _, dup := seen[&entities[0]]; dup {
			continue
		}
		seen[&entities[0]] = struct{}{}
		for _, e := range entities {
			found[e.Ref] = e
			b.entities.Add(e.Ref, e)
		}
	}
	for _, r := range requests {
		root, ok := found[r.Ref]
		if !ok {
			b.entities.AddAbsent(r.Ref)
			continue
		}
		for _, p := range r.Paths {
			current := root
			for _, segment := range p.Segments() {
				ref, isRef := current.Fields[segment].Ref()
				if !isRef {
					break
				}
				next, ok := found[ref]
				if !ok {
					b.entities.AddAbsent(ref)
					break
				}
				current = next
			}
		}
	}
}
