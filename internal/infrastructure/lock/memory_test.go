package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/business-trip/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Serializes(t *testing.T) {
	l := NewMemoryLocker(time.Second)

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "trip-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Empty(t, l.entries, "entries are released")
}

func TestMemoryLocker_Timeout(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)

	unlock, err := l.Lock(context.Background(), "trip-1")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), "trip-1")
	assert.ErrorIs(t, err, entity.ErrConcurrentModification)
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)

	unlockA, err := l.Lock(context.Background(), "trip-a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(context.Background(), "trip-b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLocker_ContextCancel(t *testing.T) {
	l := NewMemoryLocker(time.Second)

	unlock, err := l.Lock(context.Background(), "trip-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "trip-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryLocker_UnlockTwice(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)

	unlock, err := l.Lock(context.Background(), "trip-1")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "trip-1")
	require.NoError(t, err)
	again()
}
