/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package requestqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func waitTask(t *testing.T, task *Task) (interface{}, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return task.Wait(ctx)
}

func TestQueueResolvesTaskWithActionResult(t *testing.T) {
	q := NewQueue()

	task := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "clip-saved", nil
	}, EnqueueOpts{})

	result, err := waitTask(t, task)
	require.NoError(t, err)
	require.Equal(t, "clip-saved", result)
}

func TestQueueRejectsTaskWithOriginalError(t *testing.T) {
	q := NewQueue()
	wantErr := errors.New("disk full")

	task := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	}, EnqueueOpts{})

	result, err := waitTask(t, task)
	require.Nil(t, result)
	require.Same(t, wantErr, err, "the action's error should be surfaced as is, without wrapping")
}

func TestQueueDispatchesInArrivalOrder(t *testing.T) {
	// With a single slot, execution order equals dispatch order.
	q := NewQueueWithOpts(QueueOpts{ConcurrencyLimit: 1})

	var mu sync.Mutex
	var gotOrder []int
	tasks := make([]*Task, 0, 20)
	for i := 0; i < 20; i++ {
		i := i
		tasks = append(tasks, q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			gotOrder = append(gotOrder, i)
			mu.Unlock()
			return nil, nil
		}, EnqueueOpts{}))
	}
	for _, task := range tasks {
		_, err := waitTask(t, task)
		require.NoError(t, err)
	}

	wantOrder := make([]int, 0, 20)
	for i := 0; i < 20; i++ {
		wantOrder = append(wantOrder, i)
	}
	require.Equal(t, wantOrder, gotOrder)
}

func TestQueueNeverExceedsConcurrencyLimit(t *testing.T) {
	const limit = 10
	q := NewQueueWithOpts(QueueOpts{ConcurrencyLimit: limit})

	var running, maxRunning atomic.Int64
	release := make(chan struct{})
	tasks := make([]*Task, 0, 30)
	for i := 0; i < 30; i++ {
		tasks = append(tasks, q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
			cur := running.Inc()
			for {
				prevMax := maxRunning.Load()
				if cur <= prevMax || maxRunning.CompareAndSwap(prevMax, cur) {
					break
				}
			}
			<-release
			running.Dec()
			return nil, nil
		}, EnqueueOpts{}))
	}

	require.Eventually(t, func() bool {
		return q.Stats().InFlight == limit
	}, time.Second*5, time.Millisecond*5)

	close(release)
	for _, task := range tasks {
		_, err := waitTask(t, task)
		require.NoError(t, err)
	}

	require.Equal(t, int64(limit), maxRunning.Load())
	require.Eventually(t, func() bool {
		return q.Stats() == Stats{}
	}, time.Second, time.Millisecond*5)
}

func TestQueueFlushesBatchOnIdleDelay(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{BatchIdleDelay: time.Millisecond * 50})

	tasks := make([]*Task, 0, 5)
	for i := 0; i < 5; i++ {
		tasks = append(tasks, q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
			return nil, nil
		}, EnqueueOpts{BatchKey: "votes"}))
	}

	stats := q.Stats()
	require.Equal(t, 1, stats.PendingBatches, "tasks should be held in the batch until the idle delay elapses")
	require.Equal(t, 0, stats.QueueLength)

	for _, task := range tasks {
		_, err := waitTask(t, task)
		require.NoError(t, err)
	}
	require.Equal(t, 0, q.Stats().PendingBatches)
}

func TestQueueRescheduledBatchIgnoresStaleTimer(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{BatchIdleDelay: time.Hour})
	noop := func(ctx context.Context) (interface{}, error) { return nil, nil }

	q.Enqueue(context.Background(), noop, EnqueueOpts{BatchKey: "votes"})

	q.mu.Lock()
	b := q.batches["votes"]
	staleGen := b.gen
	q.mu.Unlock()

	// A new arrival reschedules the idle timer and invalidates the earlier one.
	q.Enqueue(context.Background(), noop, EnqueueOpts{BatchKey: "votes"})

	// A timer callback that fired just before the reschedule must not flush the batch early.
	q.flushBatchOnTimer(b, staleGen)
	stats := q.Stats()
	require.Equal(t, 1, stats.PendingBatches, "the rescheduled batch should stay pending")
	require.Equal(t, 0, stats.QueueLength)

	// The timer of the current generation flushes as usual.
	q.mu.Lock()
	liveGen := b.gen
	q.mu.Unlock()
	q.flushBatchOnTimer(b, liveGen)
	require.Equal(t, 0, q.Stats().PendingBatches)
}

func TestQueueFlushesFullBatchImmediately(t *testing.T) {
	// A long idle delay makes sure that only the size trigger can flush in time.
	q := NewQueueWithOpts(QueueOpts{MaxBatchSize: 20, BatchIdleDelay: time.Minute})

	tasks := make([]*Task, 0, 20)
	for i := 0; i < 20; i++ {
		tasks = append(tasks, q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
			return nil, nil
		}, EnqueueOpts{BatchKey: "votes"}))
	}

	for _, task := range tasks {
		_, err := waitTask(t, task)
		require.NoError(t, err)
	}
}

func TestQueueOverflowingBatchFlushesInTwoBlocks(t *testing.T) {
	// Enqueue 25 tasks with one batch key and max batch size 20: the first 20 flush
	// immediately, the remaining 5 only after the idle delay.
	q := NewQueueWithOpts(QueueOpts{
		ConcurrencyLimit: 1,
		MaxBatchSize:     20,
		BatchIdleDelay:   time.Millisecond * 200,
	})

	var mu sync.Mutex
	var gotOrder []int
	tasks := make([]*Task, 0, 25)
	for i := 0; i < 25; i++ {
		i := i
		tasks = append(tasks, q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			gotOrder = append(gotOrder, i)
			mu.Unlock()
			return nil, nil
		}, EnqueueOpts{BatchKey: "votes"}))
	}

	for _, task := range tasks[:20] {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*150)
		_, err := task.Wait(ctx)
		cancel()
		require.NoError(t, err, "the full batch should flush without waiting for the idle delay")
	}
	require.Equal(t, 1, q.Stats().PendingBatches, "the 5 overflow tasks should form a new pending batch")

	for _, task := range tasks[20:] {
		_, err := waitTask(t, task)
		require.NoError(t, err)
	}

	wantOrder := make([]int, 0, 25)
	for i := 0; i < 25; i++ {
		wantOrder = append(wantOrder, i)
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, wantOrder, gotOrder, "tasks within a batch should keep their join order")
}

func TestQueueKeepsFlushedBatchContiguous(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{ConcurrencyLimit: 1, BatchIdleDelay: time.Millisecond * 20})

	var mu sync.Mutex
	var gotOrder []string
	record := func(name string) Action {
		return func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			gotOrder = append(gotOrder, name)
			mu.Unlock()
			return nil, nil
		}
	}

	// A blocker keeps the drain loop busy so everything below queues up behind it.
	blockerRelease := make(chan struct{})
	blocker := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		<-blockerRelease
		return nil, nil
	}, EnqueueOpts{})

	first := q.Enqueue(context.Background(), record("first"), EnqueueOpts{})
	batched := []*Task{
		q.Enqueue(context.Background(), record("batch-0"), EnqueueOpts{BatchKey: "ratings"}),
		q.Enqueue(context.Background(), record("batch-1"), EnqueueOpts{BatchKey: "ratings"}),
	}
	// Wait for the batch to flush, then add one more plain task behind the block.
	require.Eventually(t, func() bool {
		return q.Stats().PendingBatches == 0
	}, time.Second, time.Millisecond*5)
	last := q.Enqueue(context.Background(), record("last"), EnqueueOpts{})

	close(blockerRelease)
	for _, task := range append([]*Task{blocker, first, last}, batched...) {
		_, err := waitTask(t, task)
		require.NoError(t, err)
	}

	require.Equal(t, []string{"first", "batch-0", "batch-1", "last"}, gotOrder)
}

func TestQueueStatsAreIdempotent(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{ConcurrencyLimit: 1, BatchIdleDelay: time.Minute})

	release := make(chan struct{})
	blocker := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		<-release
		return nil, nil
	}, EnqueueOpts{})
	q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, EnqueueOpts{})
	q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, EnqueueOpts{BatchKey: "votes"})

	require.Eventually(t, func() bool {
		return q.Stats().InFlight == 1
	}, time.Second, time.Millisecond*5)

	first := q.Stats()
	second := q.Stats()
	require.Equal(t, first, second)
	require.Equal(t, Stats{QueueLength: 1, InFlight: 1, PendingBatches: 1}, first)

	close(release)
	_, err := waitTask(t, blocker)
	require.NoError(t, err)
}

func TestQueueFailingTaskDoesNotAffectSiblings(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{BatchIdleDelay: time.Millisecond * 20})
	wantErr := errors.New("vote rejected")

	failing := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	}, EnqueueOpts{BatchKey: "votes"})
	sibling := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	}, EnqueueOpts{BatchKey: "votes"})

	_, err := waitTask(t, failing)
	require.Same(t, wantErr, err)

	result, err := waitTask(t, sibling)
	require.NoError(t, err, "a failing task should not affect its batch siblings")
	require.Equal(t, "ok", result)
}

func TestQueueRecoversFromPanickingTask(t *testing.T) {
	q := NewQueue()

	panicking := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		panic("boom")
	}, EnqueueOpts{})
	_, err := waitTask(t, panicking)
	require.Error(t, err)
	require.Contains(t, err.Error(), "panic")

	// The drain loop must survive and process subsequent tasks.
	next := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return 42, nil
	}, EnqueueOpts{})
	result, err := waitTask(t, next)
	require.NoError(t, err)
	require.Equal(t, 42, result)
}

func TestQueueClearLeavesTasksPending(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{ConcurrencyLimit: 1, BatchIdleDelay: time.Millisecond * 30})

	release := make(chan struct{})
	blocker := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		<-release
		return nil, nil
	}, EnqueueOpts{})

	queued := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, EnqueueOpts{})
	batched := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, EnqueueOpts{BatchKey: "votes"})

	require.Eventually(t, func() bool {
		return q.Stats().InFlight == 1
	}, time.Second, time.Millisecond*5)
	q.Clear()

	stats := q.Stats()
	require.Equal(t, 0, stats.QueueLength)
	require.Equal(t, 0, stats.PendingBatches)

	close(release)
	_, err := waitTask(t, blocker)
	require.NoError(t, err, "tasks already in flight should still complete")

	time.Sleep(time.Millisecond * 100) // Longer than the batch idle delay.
	select {
	case <-queued.Done():
		t.Fatal("cleared task should be left pending")
	case <-batched.Done():
		t.Fatal("cleared batched task should be left pending")
	default:
	}
}

func TestQueuePriorityIsAcceptedButInert(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{ConcurrencyLimit: 1})

	var mu sync.Mutex
	var gotOrder []int
	tasks := make([]*Task, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		tasks = append(tasks, q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			gotOrder = append(gotOrder, i)
			mu.Unlock()
			return nil, nil
		}, EnqueueOpts{Priority: 100 - i}))
	}
	for _, task := range tasks {
		_, err := waitTask(t, task)
		require.NoError(t, err)
	}

	require.Equal(t, []int{0, 1, 2, 3, 4}, gotOrder, "dispatch order is FIFO regardless of priority")
}

func TestTaskWaitHonorsContext(t *testing.T) {
	q := NewQueueWithOpts(QueueOpts{BatchIdleDelay: time.Minute})
	task := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, EnqueueOpts{BatchKey: "never-flushed"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*20)
	defer cancel()
	_, err := task.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueTaskIDsAreUnique(t *testing.T) {
	q := NewQueue()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		task := q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
			return nil, nil
		}, EnqueueOpts{})
		require.False(t, seen[task.ID()], fmt.Sprintf("duplicate task id %s", task.ID()))
		seen[task.ID()] = true
	}
}
