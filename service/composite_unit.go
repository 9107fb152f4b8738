/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package service

import (
	"errors"
	"strings"
	"sync"
)

// CompositeUnit represents a composition of service units.
type CompositeUnit struct {
	Units []Unit
}

// NewCompositeUnit creates a new composite unit.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	return &CompositeUnit{units}
}

// Start launches all units concurrently, each in its own goroutine,
// and returns when every Start invocation has returned cleanly.
// If any unit fails to start, the other units are stopped (non-gracefully)
// and a single CompositeUnitError with all collected errors is sent to fatalError.
func (cu *CompositeUnit) Start(fatalError chan<- error) {
	unitErrs := make([]chan error, len(cu.Units))
	started := make(chan bool, len(cu.Units))
	for i := range cu.Units {
		unitErrs[i] = make(chan error, 1)
		go func(u Unit, errCh chan error) {
			u.Start(errCh)
			started <- len(errCh) == 0
		}(cu.Units[i], unitErrs[i])
	}

	for range cu.Units {
		if ok := <-started; !ok {
			fatalError <- cu.collectStartErrors(unitErrs)
			return
		}
	}
}

// collectStartErrors stops the remaining units and gathers their start errors
// together with the stop errors into one CompositeUnitError.
func (cu *CompositeUnit) collectStartErrors(unitErrs []chan error) error {
	stopErr := cu.Stop(false)

	var errs []error
	for _, errCh := range unitErrs {
		select {
		case err := <-errCh:
			errs = append(errs, err)
		default:
		}
	}
	var cuErr *CompositeUnitError
	if errors.As(stopErr, &cuErr) {
		errs = append(errs, cuErr.UnitErrors...)
	}
	return &CompositeUnitError{UnitErrors: errs}
}

// Stop stops all units in the composition (each in its own separate goroutine).
// Errors that occurred while stopping the units are collected and a single CompositeUnitError is returned.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	stopErrs := make(chan error, len(cu.Units))

	var wg sync.WaitGroup
	for _, u := range cu.Units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			if err := u.Stop(gracefully); err != nil {
				stopErrs <- err
			}
		}(u)
	}
	wg.Wait()
	close(stopErrs)

	var errs []error
	for err := range stopErrs {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &CompositeUnitError{UnitErrors: errs}
	}
	return nil
}

// CompositeUnitError is an error which may occur in CompositeUnit's methods.
type CompositeUnitError struct {
	UnitErrors []error
}

// Error returns a string representation of a units composition error.
func (cue *CompositeUnitError) Error() string {
	msgs := make([]string, 0, len(cue.UnitErrors))
	for _, err := range cue.UnitErrors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
