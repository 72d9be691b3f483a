package deferred

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlesOnce(t *testing.T) {
	t.Run("resolve wins", func(t *testing.T) {
		d := New[int]()
		d.Resolve(1)
		d.Resolve(2)
		d.Reject(errors.New("late"))

		v, err := d.Await(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("reject wins", func(t *testing.T) {
		boom := errors.New("boom")
		d := New[int]()
		d.Reject(boom)
		d.Resolve(2)

		v, err := d.Await(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, v)
	})

	t.Run("zero value", func(t *testing.T) {
		var d DeferredImp[string]
		d.Resolve("ready")
		v, err := d.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ready", v)
	})
}

func TestAwait(t *testing.T) {
	t.Run("across goroutines", func(t *testing.T) {
		d := New[string]()
		var wg sync.WaitGroup
		results := make([]string, 4)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := d.Await(context.Background())
				assert.NoError(t, err)
				results[i] = v
			}()
		}
		d.Resolve("ready")
		wg.Wait()
		assert.Equal(t, []string{"ready", "ready", "ready", "ready"}, results)
	})

	t.Run("rejection", func(t *testing.T) {
		boom := errors.New("boom")
		d := New[int]()
		go d.Reject(boom)
		_, err := d.Await(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New[int]().Await(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := New[int]().Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("done channel", func(t *testing.T) {
		d := New[int]()
		select {
		case <-d.Done():
			t.Fatal("done before settling")
		default:
		}
		d.Resolve(1)
		<-d.Done()
	})
}

func TestAll(t *testing.T) {
	t.Run("resolves when all resolved", func(t *testing.T) {
		a, b, c := New[int](), New[int](), New[int]()
		all := All([]Deferred[int]{a, b, c})

		c.Resolve(3)
		a.Resolve(1)
		b.Resolve(2)

		values, err := all.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, values)
	})

	t.Run("rejects on first error", func(t *testing.T) {
		first := errors.New("first")
		a, b := New[int](), New[int]()
		all := All([]Deferred[int]{a, b})

		a.Reject(first)
		_, err := all.Await(context.Background())
		assert.ErrorIs(t, err, first)

		b.Reject(errors.New("second"))
		_, err = all.Await(context.Background())
		assert.ErrorIs(t, err, first)
	})

	t.Run("empty", func(t *testing.T) {
		values, err := All[int](nil).Await(context.Background())
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("inputs already settled", func(t *testing.T) {
		a, b := New[string](), New[string]()
		a.Resolve("a")
		b.Resolve("b")

		values, err := All([]Deferred[string]{a, b}).Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, values)
	})
}
