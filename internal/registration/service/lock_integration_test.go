//go:build integration

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"confreg/pkg/testutil/containers"
)

func TestRedisLocker_SerializesAcrossHolders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.NewRedisContainer(t)
	// two lockers model two instances sharing one Redis
	lockers := []*RedisLocker{
		NewRedisLocker(rc.Client, 5*time.Second),
		NewRedisLocker(rc.Client, 5*time.Second),
	}

	var inside, overlaps atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(l *RedisLocker) {
			defer wg.Done()
			err := l.WithLock(context.Background(), "reg:42", func(context.Context) error {
				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}(lockers[i%2])
	}
	wg.Wait()
	assert.Zero(t, overlaps.Load())
}
