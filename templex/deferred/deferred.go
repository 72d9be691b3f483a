// Package deferred is a promise settled once by a producer and awaited by
// any number of consumers, possibly on other goroutines.
package deferred

import (
	"context"
	"sync"
)

// DeferredImp settles at most once; later Resolve and Reject calls are
// ignored. The zero value is ready to use.
type DeferredImp[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	value   T
	err     error
	settled bool
}

var _ Deferred[int] = (*DeferredImp[int])(nil)

func New[T any]() *DeferredImp[T] {
	return &DeferredImp[T]{}
}

// doneLocked must be called with mu held.
func (d *DeferredImp[T]) doneLocked() chan struct{} {
	if d.done == nil {
		d.done = make(chan struct{})
	}
	return d.done
}

func (d *DeferredImp[T]) settle(v T, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return
	}
	d.value, d.err, d.settled = v, err, true
	close(d.doneLocked())
}

func (d *DeferredImp[T]) Resolve(v T) {
	d.settle(v, nil)
}

func (d *DeferredImp[T]) Reject(err error) {
	var zero T
	d.settle(zero, err)
}

// Done is closed once the deferred settles.
func (d *DeferredImp[T]) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doneLocked()
}

// Await blocks until the deferred settles or ctx is done, whichever comes
// first.
func (d *DeferredImp[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.Done():
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.err
}

// All resolves with every value in order, or rejects with the first error.
// Each input is watched by its own goroutine until it settles.
func All[T any](deferreds []Deferred[T]) *DeferredImp[[]T] {
	result := New[[]T]()

	if len(deferreds) == 0 {
		result.Resolve([]T{})
		return result
	}

	var mu sync.Mutex
	values := make([]T, len(deferreds))
	remaining := len(deferreds)

	for i, d := range deferreds {
		go func() {
			<-d.Done()
			v, err := d.Await(context.Background())
			if err != nil {
				result.Reject(err)
				return
			}
			mu.Lock()
			values[i] = v
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				result.Resolve(values)
			}
		}()
	}

	return result
}
