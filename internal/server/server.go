package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Server hosts the intercepted handler chain with graceful shutdown, so
// in-flight requests still get their terminal log event before the process
// exits.
type Server struct {
	httpServer   *http.Server
	drainTimeout time.Duration
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Addr         string // listen address, e.g. ":8001"
	Handler      http.Handler
	DrainTimeout time.Duration // max time to wait for in-flight requests
	Logger       *slog.Logger
}

// New creates a server from cfg. Zero DrainTimeout defaults to 30s.
func New(cfg Config) *Server {
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           cfg.Handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		drainTimeout: cfg.DrainTimeout,
		logger:       cfg.Logger,
	}
}

// ListenAndServe starts the server and blocks until SIGTERM/SIGINT triggers
// shutdown or the listener fails. On shutdown, new connections are refused
// and in-flight requests are drained for up to the configured timeout.
func (s *Server) ListenAndServe() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err // listener failed before any signal
	case sig := <-sigCh:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.logger.Info("draining connections", "timeout", s.drainTimeout.String())
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("drain incomplete, forcing close", "error", err)
		s.httpServer.Close()
	}

	s.logger.Info("shutdown complete")
	return nil
}
