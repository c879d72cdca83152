package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/resume-qa/pkg/infra/server/transport/http"
)

// Manager runs the HTTP server and auxiliary servers with a unified lifecycle.
type Manager struct {
	httpServer      *http.Server
	servers         []Runnable
	shutdownTimeout time.Duration
	mu              sync.Mutex
	started         bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.shutdownTimeout = d
	}
}

// WithServer adds an auxiliary server.
func WithServer(s Runnable) Option {
	return func(m *Manager) {
		m.servers = append(m.servers, s)
	}
}

// NewManager creates a manager around the HTTP server.
func NewManager(httpServer *http.Server, opts ...Option) *Manager {
	m := &Manager{
		httpServer:      httpServer,
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HTTPServer returns the HTTP server.
func (m *Manager) HTTPServer() *http.Server {
	return m.httpServer
}

// Start starts all servers. If one fails, the ones already started are stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("server manager already started")
	}

	if err := m.httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	logger.Infow("HTTP server started", "addr", m.httpServer.Addr())

	for i, s := range m.servers {
		if err := s.Start(ctx); err != nil {
			for _, started := range m.servers[:i] {
				_ = started.Stop(ctx)
			}
			_ = m.httpServer.Stop(ctx)
			return fmt.Errorf("failed to start server %s: %w", s.Name(), err)
		}
		logger.Infow("Server started", "name", s.Name())
	}

	m.started = true
	return nil
}

// Stop stops all servers gracefully, auxiliary servers first.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false

	var errs []error
	for _, s := range m.servers {
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", s.Name(), err))
		}
	}
	if err := m.httpServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop HTTP server: %w", err))
	}
	logger.Info("HTTP server stopped")

	return utilerrors.NewAggregate(errs)
}

// Run starts all servers and blocks until ctx is done, SIGINT or SIGTERM
// arrives, or the HTTP server fails. It then shuts down within the
// configured timeout.
func (m *Manager) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Server shutting down...")
	case serveErr = <-m.httpServer.Err():
		logger.Errorw("HTTP server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
	defer cancel()

	return errors.Join(serveErr, m.Stop(shutdownCtx))
}
