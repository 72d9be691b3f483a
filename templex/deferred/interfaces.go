package deferred

import "context"

type Deferred[T any] interface {
	Resolve(T)
	Reject(error)
	Await(ctx context.Context) (T, error)
	Done() <-chan struct{}
}
