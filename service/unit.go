/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Package service provides a way to assemble long-running components
// (HTTP server, periodic workers) into one unit with a common lifecycle
// and graceful shutdown by OS signal.
package service

// Unit is a long-running component with its own lifecycle.
type Unit interface {
	// Start begins the unit's operation.
	// It may return immediately after initialization or block for the unit's lifetime.
	// A unit that fails to start writes a single error to fatalErr before returning
	// and must not touch the channel after Start has returned.
	Start(fatalErr chan<- error)

	// Stop halts the unit, cleanly when gracefully is true.
	// It must be safe to call even if Start has failed or was never called.
	Stop(gracefully bool) error
}
