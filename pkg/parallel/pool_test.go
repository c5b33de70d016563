package parallel

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ras/errors"
)

func TestRun_AllSucceed(t *testing.T) {
	pool := NewPool(4)
	var count int32

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{Name: fmt.Sprintf("pkg%d", i), Run: func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		}}
	}

	require.NoError(t, pool.Run(context.Background(), "init", tasks...))
	assert.Equal(t, int32(10), count)
}

func TestRun_OneFailureStillRunsAll(t *testing.T) {
	pool := NewPool(2)
	var count int32
	const n = 8

	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Name: fmt.Sprintf("pkg%d", i), Run: func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			if i == 0 {
				return fmt.Errorf("clone failed")
			}
			// Slow siblings must still be waited for after the first failure.
			time.Sleep(5 * time.Millisecond)
			return nil
		}}
	}

	err := pool.Run(context.Background(), "init", tasks...)
	require.Error(t, err)
	assert.Equal(t, int32(n), count, "every task must be attempted before the error is reported")
	assert.Equal(t, errors.ErrCodeAggregatedOperation, errors.GetCode(err))

	rasErr, ok := errors.As(err)
	require.True(t, ok)
	require.Len(t, rasErr.Failures(), 1)
	assert.True(t, strings.HasPrefix(rasErr.Failures()[0].Error(), "pkg0: "))
}

func TestRun_CollectsEveryFailure(t *testing.T) {
	pool := NewPool(0)
	assert.Greater(t, pool.Size(), 0)

	err := pool.Run(context.Background(), "clear",
		Task{Name: "a", Run: func(context.Context) error { return fmt.Errorf("boom") }},
		Task{Name: "b", Run: func(context.Context) error { return nil }},
		Task{Name: "c", Run: func(context.Context) error { panic("unexpected") }},
	)
	rasErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Len(t, rasErr.Failures(), 2)
	assert.True(t, errors.Is(err, errors.ErrCodeInternal))
}

func TestRun_RespectsLimit(t *testing.T) {
	pool := NewPool(2)
	var running, peak int32

	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = Task{Name: fmt.Sprintf("t%d", i), Run: func(ctx context.Context) error {
			cur := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}}
	}

	require.NoError(t, pool.Run(context.Background(), "pull", tasks...))
	assert.LessOrEqual(t, peak, int32(2))
}

func TestRun_NestedDoesNotDeadlock(t *testing.T) {
	pool := NewPool(1)
	var leaves int32

	outer := make([]Task, 3)
	for i := range outer {
		outer[i] = Task{Name: fmt.Sprintf("map%d", i), Run: func(ctx context.Context) error {
			return pool.Run(ctx, "children",
				Task{Name: "leaf", Run: func(context.Context) error {
					atomic.AddInt32(&leaves, 1)
					return nil
				}},
			)
		}}
	}

	require.NoError(t, pool.Run(context.Background(), "tree", outer...))
	assert.Equal(t, int32(3), leaves)
}

func TestRun_NoTasks(t *testing.T) {
	assert.NoError(t, NewPool(1).Run(context.Background(), "noop"))
}
