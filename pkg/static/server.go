// Package static provides the HTTP server for pre-rendered assets living
// outside the filesystem namespace.
//
// The server delivers files from a plain on-disk directory under /static/,
// with MIME types guessed from extensions and client caching controlled by
// configuration. It also exposes /healthz for liveness probing of both
// backing stores and, when metrics are enabled, the Prometheus exposition
// endpoint at /metrics. Requests are rate limited per client IP.
package static

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/arborfs/arborfs/internal/logger"
	"github.com/arborfs/arborfs/internal/ratelimiter"
	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

const (
	// purgeInterval is how often idle rate-limit buckets are retired.
	purgeInterval = 5 * time.Minute

	// clientIdleEviction is how long a client must be idle before its
	// bucket is retired.
	clientIdleEviction = 15 * time.Minute
)

// Server is the static asset HTTP server.
//
// The server supports graceful shutdown: cancelling the Serve context
// drains in-flight requests for up to Config.ShutdownTimeout.
type Server struct {
	config       Config
	server       *http.Server
	limiter      *ratelimiter.PerClient
	mu           sync.Mutex
	listener     net.Listener
	shutdownOnce sync.Once
}

// NewServer creates a new static asset server.
//
// The server is created in a stopped state. Call Serve to begin serving
// requests.
//
// Parameters:
//   - config: Server configuration (zero values get defaults)
//   - records: Record store, health checked by /healthz
//   - objects: Content store, health checked by /healthz
//
// Returns a configured but not yet started Server.
func NewServer(config Config, records record.Store, objects content.Store) *Server {
	config.applyDefaults()

	limiter := ratelimiter.NewPerClient(config.RateLimit, config.RateBurst)
	router := NewRouter(config, records, objects, limiter)

	return &Server{
		config:  config,
		limiter: limiter,
		server: &http.Server{
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// Serve starts the server and blocks until the context is cancelled or the
// server fails.
//
// When the context is cancelled, Serve initiates graceful shutdown bounded
// by Config.ShutdownTimeout and returns its outcome.
//
// Parameters:
//   - ctx: Controls the server lifetime. Cancellation triggers shutdown.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the listener cannot be opened or serving fails
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Static server listening on %s (root %s)", listener.Addr(), s.config.Root)

		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	// Retire idle rate-limit buckets while serving
	purge := time.NewTicker(purgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Static server shutdown signal received")
			// A fresh context: the cancelled one would abort the drain
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
			defer cancel()
			return s.Stop(shutdownCtx)

		case err := <-errChan:
			return fmt.Errorf("static server failed: %w", err)

		case <-purge.C:
			s.limiter.Purge(clientIdleEviction)
		}
	}
}

// Stop initiates graceful shutdown.
//
// Safe to call multiple times and concurrently with Serve.
//
// Parameters:
//   - ctx: Bounds the drain. If cancelled, shutdown aborts immediately.
//
// Returns:
//   - error: Returns error if the drain failed or timed out
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("Static server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("static server shutdown: %w", err)
		} else {
			logger.Info("Static server stopped")
		}
	})
	return shutdownErr
}

// Addr returns the address the server is listening on. Before Serve has
// opened the listener it returns the configured address, which still names
// port 0 when the OS picks the port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
