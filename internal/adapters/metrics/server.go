package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"land-crawler-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server - служебный HTTP-сервер: /metrics и /healthz
type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

func NewServer(addrPort string, m *Metrics, logger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + addrPort,
			Handler:           newRouter(m, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func newRouter(m *Metrics, logger port.LoggerPort) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger), middleware.Recoverer)

	r.Handle("/metrics", m.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// requestLogger пишет в debug: скрейпы приходят часто
func requestLogger(logger port.LoggerPort) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("Request finished", port.Fields{
				"http_method":   r.Method,
				"http_path":     r.URL.Path,
				"status_code":   ww.Status(),
				"bytes_written": ww.BytesWritten(),
				"duration_ms":   time.Since(startTime).Milliseconds(),
			})
		})
	}
}

// Start блокируется до остановки сервера
func (s *Server) Start() error {
	s.logger.Info("Starting metrics server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping metrics server...", nil)
	return s.httpServer.Shutdown(ctx)
}
