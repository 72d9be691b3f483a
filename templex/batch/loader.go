// Package batch coalesces entity requests into store round trips.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/krew-solutions/templex-go/templex/deferred"
	"github.com/krew-solutions/templex-go/templex/signals"
	"github.com/krew-solutions/templex-go/templex/store"
)

type pendingLoad struct {
	request store.Request
	result  *deferred.DeferredImp[[]*store.Entity]
}

// Loader collects requests until Dispatch sends all of them in one Fetch.
// Each Load resolves with everything that round trip returned. Loader is
// safe for concurrent use; concurrent Dispatch calls split the pending
// requests between them.
type Loader struct {
	store     store.Store
	mu        sync.Mutex
	pending   []pendingLoad
	onStarted *signals.SignalImp[FetchStarted]
	onEnded   *signals.SignalImp[FetchEnded]
}

func NewLoader(s store.Store) *Loader {
	return &Loader{
		store:     s,
		onStarted: signals.NewSignal[FetchStarted](),
		onEnded:   signals.NewSignal[FetchEnded](),
	}
}

func (l *Loader) OnFetchStarted() signals.Signal[FetchStarted] {
	return l.onStarted
}

func (l *Loader) OnFetchEnded() signals.Signal[FetchEnded] {
	return l.onEnded
}

// Load queues a request. The result settles on the next Dispatch.
func (l *Loader) Load(request store.Request) deferred.Deferred[[]*store.Entity] {
	result := deferred.New[[]*store.Entity]()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, pendingLoad{request: request, result: result})
	return result
}

func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Dispatch sends every queued request in one round trip. It is a no-op
// when nothing is queued. A failed fetch rejects every request it carried.
func (l *Loader) Dispatch(ctx context.Context) error {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	requests := make([]store.Request, 0, len(pending))
	for _, p := range pending {
		requests = append(requests, p.request)
	}
	requests = store.Merge(requests)

	l.onStarted.Notify(FetchStarted{Requests: len(requests)})
	start := time.Now()
	entities, err := l.store.Fetch(ctx, requests)
	l.onEnded.Notify(FetchEnded{
		Requests: len(requests),
		Entities: len(entities),
		Duration: time.Since(start),
		Err:      err,
	})

	for _, p := range pending {
		if err != nil {
			p.result.Reject(err)
		} else {
			p.result.Resolve(entities)
		}
	}
	return err
}
