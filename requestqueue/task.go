/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package requestqueue

import (
	"context"
	"time"

	"github.com/rs/xid"
	"go.uber.org/atomic"
)

// Action is a deferred unit of work processed by the queue.
type Action func(ctx context.Context) (interface{}, error)

// Task is a handle for an enqueued action.
// It is completed exactly once: either with the action's result or with its original error.
type Task struct {
	id         string
	ctx        context.Context
	action     Action
	enqueuedAt time.Time

	completed atomic.Bool
	done      chan struct{}
	result    interface{}
	err       error
}

func newTask(ctx context.Context, action Action) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Task{
		id:         xid.New().String(),
		ctx:        ctx,
		action:     action,
		enqueuedAt: time.Now(),
		done:       make(chan struct{}),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string {
	return t.id
}

// Done returns a channel that is closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes or ctx is done.
// The returned error is the action's error as is, without wrapping.
// Note that ctx cancellation does not cancel the task itself, only the wait:
// once enqueued, a task will eventually run.
func (t *Task) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Task) complete(result interface{}, err error) {
	if !t.completed.CompareAndSwap(false, true) {
		return
	}
	t.result = result
	t.err = err
	close(t.done)
}
