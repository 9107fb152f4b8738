/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chorushub/go-clipkit/log"
)

// Opts represents an options for Service.
type Opts struct {
	ShutdownSignals []os.Signal
}

// Service ties a unit to the process lifecycle: it starts the unit and
// stops it gracefully when a shutdown OS signal arrives or the context is canceled.
type Service struct {
	Unit   Unit
	Logger log.FieldLogger

	signals         chan os.Signal
	shutdownSignals []os.Signal
}

// New creates new Service which will start and stop the passed unit.
// SIGINT and SIGTERM are treated as shutdown signals.
func New(logger log.FieldLogger, unit Unit) *Service {
	return NewWithOpts(logger, unit, Opts{
		ShutdownSignals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts(logger log.FieldLogger, unit Unit, opts Opts) *Service {
	return &Service{
		Unit:            unit,
		Logger:          logger,
		signals:         make(chan os.Signal, 1),
		shutdownSignals: opts.ShutdownSignals,
	}
}

// Start wraps StartContext using the background context.
func (s *Service) Start() error {
	return s.StartContext(context.Background())
}

// StartContext starts the service unit in a separate goroutine and
// blocks until a fatal error occurs or any of the shutdown OS signals is received.
func (s *Service) StartContext(ctx context.Context) error {
	fatalError := make(chan error, 1)
	go s.Unit.Start(fatalError)

	signal.Notify(s.signals, s.shutdownSignals...)
	defer signal.Stop(s.signals)

	var reason string
	select {
	case err := <-fatalError:
		s.Logger.Error("service fatal error", log.Error(err))
		return fmt.Errorf("fatal error: %w", err)
	case sig := <-s.signals:
		reason = "got signal " + sig.String()
	case <-ctx.Done():
		reason = "context is done"
	}

	s.Logger.Info("service is shutting down", log.String("reason", reason))
	if err := s.Unit.Stop(true); err != nil {
		return fmt.Errorf("stop service gracefully: %w", err)
	}
	return nil
}
