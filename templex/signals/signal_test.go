package signals

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fetchEvent struct {
	requests int
}

func TestSignal_AttachAndNotify(t *testing.T) {
	s := NewSignal[fetchEvent]()
	var called fetchEvent
	s.Attach(func(e fetchEvent) { called = e }, "obs")
	s.Notify(fetchEvent{3})
	assert.Equal(t, fetchEvent{3}, called)
}

func TestSignal_NotifyPreservesOrder(t *testing.T) {
	s := NewSignal[fetchEvent]()
	var order []int
	s.Attach(func(fetchEvent) { order = append(order, 1) }, "obs1")
	s.Attach(func(fetchEvent) { order = append(order, 2) }, "obs2")
	s.Notify(fetchEvent{1})
	assert.Equal(t, []int{1, 2}, order)
}

func TestSignal_Detach(t *testing.T) {
	s := NewSignal[fetchEvent]()
	called := false
	observer := Observer[fetchEvent](func(fetchEvent) { called = true })
	s.Attach(observer, "obs")
	s.Detach(observer, "obs")
	s.Notify(fetchEvent{1})
	assert.False(t, called)
}

func TestSignal_DetachFunc(t *testing.T) {
	s := NewSignal[fetchEvent]()
	calls := 0
	detach := s.Attach(func(fetchEvent) { calls++ })
	s.Notify(fetchEvent{1})
	detach()
	detach()
	s.Notify(fetchEvent{1})
	assert.Equal(t, 1, calls)
}

func TestSignal_DetachNonexistentIsSilent(t *testing.T) {
	s := NewSignal[fetchEvent]()
	s.Detach(func(fetchEvent) {}, "nonexistent")
}

func TestSignal_AttachDuplicateIsIdempotent(t *testing.T) {
	s := NewSignal[fetchEvent]()
	callCount := 0
	observer := Observer[fetchEvent](func(fetchEvent) { callCount++ })
	s.Attach(observer, "obs")
	s.Attach(observer, "obs")
	s.Notify(fetchEvent{1})
	assert.Equal(t, 1, callCount)
}

func TestSignal_ConcurrentNotify(t *testing.T) {
	s := NewSignal[fetchEvent]()
	var total atomic.Int64
	s.Attach(func(e fetchEvent) { total.Add(int64(e.requests)) }, "sum")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Notify(fetchEvent{2})
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(20), total.Load())
}
