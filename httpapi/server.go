/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chorushub/go-clipkit/log"
	"github.com/chorushub/go-clipkit/service"
)

// Server represents a wrapper around http.Server with a lifecycle suitable for service.Unit.
type Server struct {
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration
}

var _ service.Unit = (*Server)(nil)

// NewServer creates a new Server serving the passed handler.
func NewServer(cfg *Config, logger log.FieldLogger, handler http.Handler) *Server {
	return &Server{
		HTTPServer: &http.Server{
			Addr:         cfg.Address,
			WriteTimeout: cfg.Timeouts.Write,
			ReadTimeout:  cfg.Timeouts.Read,
			IdleTimeout:  cfg.Timeouts.Idle,
			Handler:      handler,
		},
		Logger:          logger,
		ShutdownTimeout: cfg.Timeouts.Shutdown,
	}
}

// Start starts the HTTP server in a blocking way.
// It's supposed that this method will be called in a separate goroutine.
// If a fatal error occurs, it will be sent to the fatalError channel.
func (s *Server) Start(fatalError chan<- error) {
	s.Logger.Info("starting HTTP server...",
		log.String("address", s.HTTPServer.Addr),
		log.Duration("write_timeout", s.HTTPServer.WriteTimeout),
		log.Duration("read_timeout", s.HTTPServer.ReadTimeout),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)
	if err := s.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger.Error("HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops the HTTP server, gracefully or not.
func (s *Server) Stop(gracefully bool) error {
	if !gracefully {
		s.Logger.Info("closing HTTP server...")
		return s.HTTPServer.Close()
	}

	s.Logger.Info("shutting down HTTP server gracefully...")
	ctx := context.Background()
	if s.ShutdownTimeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ShutdownTimeout)
		defer cancel()
	}
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		return err
	}
	s.Logger.Info("HTTP server is stopped")
	return nil
}
