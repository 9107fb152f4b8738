/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package requestqueue

import "time"

// pendingBatch accumulates tasks sharing a batch key until the batch is flushed
// into the main queue. At most one live batch exists per key at any time;
// the queue mutex guards all batch state.
type pendingBatch struct {
	key   string
	tasks []*Task
	timer *time.Timer

	// gen is bumped on every reschedule, so a timer callback that lost the race
	// with a reschedule can recognize itself as stale.
	gen uint64
}

func (b *pendingBatch) add(task *Task) {
	b.tasks = append(b.tasks, task)
}

// scheduleFlush (re)starts the idle timer. The previous timer, if any, is
// stopped first, so each arrival pushes the flush out by the full delay.
// The callback receives the generation of the timer that fired.
func (b *pendingBatch) scheduleFlush(delay time.Duration, flush func(gen uint64)) {
	b.cancelFlush()
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(delay, func() { flush(gen) })
}

func (b *pendingBatch) cancelFlush() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
