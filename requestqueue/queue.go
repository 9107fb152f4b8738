/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Package requestqueue provides a FIFO queue of asynchronous units of work with a bounded
// number of units in flight and optional coalescing of independently submitted units
// into batches by a caller-supplied key.
package requestqueue

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chorushub/go-clipkit/log"
)

// Default parameter values for Queue.
const (
	DefaultConcurrencyLimit = 10
	DefaultMaxBatchSize     = 20
	DefaultBatchIdleDelay   = time.Millisecond * 50
)

// EnqueueOpts contains optional parameters for Queue.Enqueue.
type EnqueueOpts struct {
	// BatchKey groups independently submitted units so they are flushed into the queue
	// as one contiguous block. Empty key means no batching.
	BatchKey string

	// Priority is accepted for forward compatibility but has no effect:
	// dispatch order is FIFO regardless of its value.
	Priority int
}

// Stats is a point-in-time snapshot of queue state. Reading it has no side effects.
type Stats struct {
	QueueLength    int
	InFlight       int
	PendingBatches int
}

// Queue dispatches enqueued actions in arrival order, running at most a configured
// number of them concurrently. Dispatch order is guaranteed, completion order is not.
type Queue struct {
	maxBatchSize   int
	batchIdleDelay time.Duration

	mu       sync.Mutex
	pending  *list.List // of *Task
	batches  map[string]*pendingBatch
	inFlight int
	draining bool

	// slots is a counting semaphore bounding the number of units in flight.
	slots chan struct{}

	metricsCollector MetricsCollector
	logger           log.FieldLogger
}

// QueueOpts contains optional parameters for Queue.
type QueueOpts struct {
	// ConcurrencyLimit bounds the number of units in flight. DefaultConcurrencyLimit is used if zero.
	ConcurrencyLimit int

	// MaxBatchSize is the number of units at which a pending batch is flushed immediately.
	// DefaultMaxBatchSize is used if zero.
	MaxBatchSize int

	// BatchIdleDelay is how long a pending batch waits for further arrivals before flushing.
	// DefaultBatchIdleDelay is used if zero.
	BatchIdleDelay time.Duration

	// MetricsCollector is used to collect statistics about queue usage.
	// It can be nil, in this case, metrics will be disabled.
	MetricsCollector MetricsCollector

	// Logger is used for logging. It can be nil, in this case, logging will be disabled.
	Logger log.FieldLogger
}

// NewQueue creates a new Queue with default options.
func NewQueue() *Queue {
	return NewQueueWithOpts(QueueOpts{})
}

// NewQueueWithOpts creates a new Queue with the provided options.
func NewQueueWithOpts(opts QueueOpts) *Queue {
	if opts.ConcurrencyLimit == 0 {
		opts.ConcurrencyLimit = DefaultConcurrencyLimit
	}
	if opts.MaxBatchSize == 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.BatchIdleDelay == 0 {
		opts.BatchIdleDelay = DefaultBatchIdleDelay
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	return &Queue{
		maxBatchSize:     opts.MaxBatchSize,
		batchIdleDelay:   opts.BatchIdleDelay,
		pending:          list.New(),
		batches:          make(map[string]*pendingBatch),
		slots:            make(chan struct{}, opts.ConcurrencyLimit),
		metricsCollector: opts.MetricsCollector,
		logger:           opts.Logger,
	}
}

// Enqueue wraps action in a task and schedules it for dispatch.
// ctx is passed to the action when it runs and does not cancel the task
// (a caller wanting a timeout should race Task.Wait against its own timer).
func (q *Queue) Enqueue(ctx context.Context, action Action, opts EnqueueOpts) *Task {
	task := newTask(ctx, action)

	q.mu.Lock()
	defer q.mu.Unlock()

	if opts.BatchKey == "" {
		q.pending.PushBack(task)
		q.metricsCollector.SetQueueLength(q.pending.Len())
		q.startDrainLocked()
		return task
	}

	b := q.batches[opts.BatchKey]
	if b == nil {
		b = &pendingBatch{key: opts.BatchKey}
		q.batches[opts.BatchKey] = b
		q.metricsCollector.SetPendingBatches(len(q.batches))
	}
	b.add(task)
	if len(b.tasks) >= q.maxBatchSize {
		q.flushBatchLocked(b)
		return task
	}
	b.scheduleFlush(q.batchIdleDelay, func(gen uint64) { q.flushBatchOnTimer(b, gen) })
	return task
}

// Stats returns a snapshot of the queue state.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		QueueLength:    q.pending.Len(),
		InFlight:       q.inFlight,
		PendingBatches: len(q.batches),
	}
}

// Clear empties the queue and cancels all pending batch timers.
// Tasks awaiting dispatch are left pending forever, so this is a test/reset-only
// operation, not something to call in production. Units already in flight are not affected.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.Init()
	for _, b := range q.batches {
		b.cancelFlush()
	}
	q.batches = make(map[string]*pendingBatch)
	q.metricsCollector.SetQueueLength(0)
	q.metricsCollector.SetPendingBatches(0)
}

// flushBatchOnTimer is called by a batch idle timer.
// Between the timer firing and the lock acquisition the batch may have been
// flushed (and its key reused), or rescheduled by a new arrival. The first case
// is caught by comparing the live batch for the key with the captured one,
// the second by comparing timer generations.
func (q *Queue) flushBatchOnTimer(b *pendingBatch, gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.batches[b.key] != b || b.gen != gen {
		return
	}
	q.flushBatchLocked(b)
}

func (q *Queue) flushBatchLocked(b *pendingBatch) {
	b.cancelFlush()
	delete(q.batches, b.key)
	for _, task := range b.tasks {
		q.pending.PushBack(task)
	}
	q.metricsCollector.SetQueueLength(q.pending.Len())
	q.metricsCollector.SetPendingBatches(len(q.batches))
	q.startDrainLocked()
}

func (q *Queue) startDrainLocked() {
	if q.draining {
		return
	}
	q.draining = true
	go q.drain()
}

// drain is the single dispatch loop. Only one instance runs at a time,
// which is what guarantees FIFO dispatch order.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if q.pending.Len() == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		// The permit is acquired before dequeuing, so the head task stays visible
		// in the queue while the concurrency limit is reached. A completing task
		// wakes the loop directly, there is no polling.
		q.slots <- struct{}{}

		q.mu.Lock()
		front := q.pending.Front()
		if front == nil {
			// The queue was cleared while acquiring the permit.
			q.draining = false
			q.mu.Unlock()
			<-q.slots
			return
		}
		q.pending.Remove(front)
		q.inFlight++
		q.metricsCollector.SetQueueLength(q.pending.Len())
		q.metricsCollector.SetInFlight(q.inFlight)
		q.mu.Unlock()

		go q.run(front.Value.(*Task))
	}
}

func (q *Queue) run(task *Task) {
	defer func() {
		q.mu.Lock()
		q.inFlight--
		q.metricsCollector.SetInFlight(q.inFlight)
		q.mu.Unlock()
		<-q.slots
	}()
	defer func() {
		if p := recover(); p != nil {
			q.metricsCollector.IncTasksFailed()
			q.logger.Error("request queue: task panicked", log.String("task_id", task.id), log.Any("panic", p))
			task.complete(nil, fmt.Errorf("task panic: %v", p))
		}
	}()

	result, err := task.action(task.ctx)
	if err != nil {
		q.metricsCollector.IncTasksFailed()
		task.complete(nil, err)
		return
	}
	q.metricsCollector.IncTasksProcessed()
	task.complete(result, nil)
}
