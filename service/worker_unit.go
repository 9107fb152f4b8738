/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"time"
)

// ErrWorkerUnitStopTimeoutExceeded is an error that occurs when WorkerUnit's graceful stop timeout is exceeded.
var ErrWorkerUnitStopTimeoutExceeded = errors.New("worker unit stop timeout exceeded")

// WorkerUnit allows presenting Worker as Unit.
type WorkerUnit struct {
	start func(fatalError chan<- error)
	stop  func(gracefully bool) error
}

// WorkerUnitOpts contains optional parameters for constructing WorkerUnit.
type WorkerUnitOpts struct {
	GracefulStopTimeout time.Duration
}

// NewWorkerUnit creates a new instance of WorkerUnit.
func NewWorkerUnit(worker Worker) *WorkerUnit {
	return NewWorkerUnitWithOpts(worker, WorkerUnitOpts{})
}

// NewWorkerUnitWithOpts creates a new instance of WorkerUnit
// with an ability to specify different optional parameters.
func NewWorkerUnitWithOpts(worker Worker, opts WorkerUnitOpts) *WorkerUnit {
	ctx, ctxCancel := context.WithCancel(context.Background())
	stopDone := make(chan struct{}, 1)

	start := func(fatalError chan<- error) {
		if err := worker.Run(ctx); err != nil {
			fatalError <- err
		}
		stopDone <- struct{}{}
	}

	stop := func(gracefully bool) error {
		ctxCancel()
		if !gracefully {
			return nil
		}
		if opts.GracefulStopTimeout == 0 {
			<-stopDone
			return nil
		}
		select {
		case <-stopDone:
		case <-time.After(opts.GracefulStopTimeout):
			return ErrWorkerUnitStopTimeoutExceeded
		}
		return nil
	}

	return &WorkerUnit{start: start, stop: stop}
}

// Start starts (calls Run() method of) the underlying Worker.
func (u *WorkerUnit) Start(fatalError chan<- error) {
	u.start(fatalError)
}

// Stop stops the underlying Worker.
func (u *WorkerUnit) Stop(gracefully bool) error {
	return u.stop(gracefully)
}
