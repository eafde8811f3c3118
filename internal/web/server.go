// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

// Package web provides the application HTTP server: the credentials
// endpoint, session cookie handling, and the route guard for protected
// pages.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/platewise/platewise/internal/auth"
	"github.com/platewise/platewise/internal/observability"
)

// Server serves the application routes.
type Server struct {
	addr       string
	handler    http.Handler
	listener   net.Listener
	httpServer *http.Server
	logger     *slog.Logger
	running    atomic.Bool
}

// NewServer wires routes, guard, and middleware into a Server.
func NewServer(addr string, handlers *Handlers, guard *Guard, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if handlers == nil {
		return nil, oops.Errorf("handlers are required")
	}
	if guard == nil {
		return nil, oops.Errorf("guard is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", handlers.HandleIndex)
	mux.HandleFunc("GET /login", handlers.HandleLoginPage)

	mux.HandleFunc("POST /api/auth/login", handlers.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", handlers.HandleLogout)
	mux.HandleFunc("GET /api/auth/session", handlers.HandleSession)

	mux.Handle("GET /dashboard", guard.RequireSession(http.HandlerFunc(handlers.HandleDashboard)))
	mux.Handle("GET /dashboard/", guard.RequireSession(http.HandlerFunc(handlers.HandleDashboard)))
	mux.Handle("GET /admin", guard.RequireRole(http.HandlerFunc(handlers.HandleAdmin), auth.RoleAdmin))
	mux.Handle("GET /planner", guard.RequireOnboarding(http.HandlerFunc(handlers.HandlePlanner)))

	return &Server{
		addr:    addr,
		handler: requestMiddleware(mux, metrics, logger),
		logger:  logger,
	}, nil
}

// Start begins serving. It returns an error channel that receives any error
// from the HTTP server after startup; the channel is closed on graceful
// stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}

	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the address the server is listening on, or empty if not
// running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Handler exposes the composed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestMiddleware adds an access log line and request counters around
// every route.
func requestMiddleware(next http.Handler, metrics *observability.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		if metrics != nil {
			metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		}
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
