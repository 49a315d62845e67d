package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes /metrics and /healthz.
type Server struct {
	l      *zap.Logger
	server *http.Server
	lsn    net.Listener
	done   chan error
}

func NewHandler(l *zap.Logger, gatherer prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()
	router.Use(accessLog(l))

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	return router
}

// Listen binds addr and serves in the background until Shutdown.
func Listen(l *zap.Logger, addr string, gatherer prometheus.Gatherer) (*Server, error) {
	l = l.With(zap.String("component", "metrics_server"))

	lsn, err := net.Listen("tcp", addr)
	if err != nil {
		l.Error("new listener create fail", zap.Error(err), zap.String("addr", addr))
		return nil, fmt.Errorf("new listener create fail: %w", err)
	}

	s := &Server{
		l: l,
		server: &http.Server{
			Handler:           NewHandler(l, gatherer),
			ReadHeaderTimeout: 5 * time.Second,
		},
		lsn:  lsn,
		done: make(chan error, 1),
	}

	go func() {
		err := s.server.Serve(lsn)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	l.Info("serving metrics", zap.String("addr", lsn.Addr().String()))
	return s, nil
}

func (s *Server) Addr() string {
	return s.lsn.Addr().String()
}

// Shutdown stops the server gracefully. When ctx ends first the remaining
// connections are closed forcibly; Shutdown returns only after Serve exits.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		s.l.Error("metrics server shutdown", zap.Error(err))
		_ = s.server.Close()
		<-s.done
		return fmt.Errorf("metrics server shutdown: %w", err)
	}

	if err := <-s.done; err != nil {
		s.l.Error("metrics server stopped", zap.Error(err))
		return fmt.Errorf("metrics server stopped: %w", err)
	}
	return nil
}

func accessLog(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			l.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", m.Code),
				zap.Int64("written", m.Written),
				zap.Duration("duration", m.Duration))
		})
	}
}
