package throttle_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkparse-api/core/errors"
	"linkparse-api/core/throttle"
)

func TestDomainThrottle(t *testing.T) {
	t.Parallel()

	t.Run("first acquire is immediate", func(t *testing.T) {
		t.Parallel()

		th := throttle.NewDomainThrottle(throttle.Config{Concurrency: 1, QueueDepth: 1})

		start := time.Now()
		release, err := th.Acquire(context.Background(), "example.com")
		require.NoError(t, err)
		release()

		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("caps concurrency per domain", func(t *testing.T) {
		t.Parallel()

		th := throttle.NewDomainThrottle(throttle.Config{Concurrency: 2, QueueDepth: 10})

		var inflight, peak int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := th.Acquire(context.Background(), "example.com")
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&inflight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&inflight, -1)
				release()
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	})

	t.Run("fails fast when queue is full", func(t *testing.T) {
		t.Parallel()

		th := throttle.NewDomainThrottle(throttle.Config{Concurrency: 1, QueueDepth: 1})
		ctx := context.Background()

		release, err := th.Acquire(ctx, "busy.example")
		require.NoError(t, err)
		defer release()

		waiterDone := make(chan struct{})
		go func() {
			defer close(waiterDone)
			r, err := th.Acquire(ctx, "busy.example")
			if err == nil {
				r()
			}
		}()
		require.Eventually(t, func() bool { return th.Waiting("busy.example") == 1 }, time.Second, 5*time.Millisecond)

		_, err = th.Acquire(ctx, "busy.example")
		require.Error(t, err)
		assert.True(t, errors.IsOverloaded(err))

		release()
		<-waiterDone
	})

	t.Run("domains are independent", func(t *testing.T) {
		t.Parallel()

		th := throttle.NewDomainThrottle(throttle.Config{Concurrency: 1, QueueDepth: 0})

		releaseA, err := th.Acquire(context.Background(), "a.example")
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := th.Acquire(context.Background(), "b.example")
		require.NoError(t, err)
		releaseB()
	})

	t.Run("respects context cancellation while queued", func(t *testing.T) {
		t.Parallel()

		th := throttle.NewDomainThrottle(throttle.Config{Concurrency: 1, QueueDepth: 4})
		release, err := th.Acquire(context.Background(), "slow.example")
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = th.Acquire(ctx, "slow.example")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("rate limits requests to same domain", func(t *testing.T) {
		t.Parallel()

		th := throttle.NewDomainThrottle(throttle.Config{Concurrency: 4, QueueDepth: 4, RPS: 10, Burst: 1})

		release, err := th.Acquire(context.Background(), "example.com")
		require.NoError(t, err)
		release()

		start := time.Now()
		release, err = th.Acquire(context.Background(), "example.com")
		require.NoError(t, err)
		release()

		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})
}
