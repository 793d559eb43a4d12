// Package server exposes a Session over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vidconv/internal/model"
	"vidconv/internal/progress"
	"vidconv/internal/session"
)

const (
	defaultMaxUpload = 4 << 30 // 4 GiB per request
	shutdownTimeout  = 30 * time.Second
)

// Server routes HTTP requests to a session.
type Server struct {
	sess      *session.Session
	snap      *progress.Snapshot
	defaults  model.Settings
	logger    *zap.Logger
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithDefaults sets the settings that POST /api/convert bodies are merged over.
func WithDefaults(s model.Settings) Option {
	return func(srv *Server) {
		srv.defaults = s
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(srv *Server) {
		srv.logger = l
	}
}

// WithMaxUpload caps the size of one upload request.
func WithMaxUpload(n int64) Option {
	return func(srv *Server) {
		srv.maxUpload = n
	}
}

// New returns a server for sess. snap must be a reporter of sess.
func New(sess *session.Session, snap *progress.Snapshot, opts ...Option) *Server {
	srv := &Server{
		sess:      sess,
		snap:      snap,
		defaults:  model.DefaultSettings(),
		logger:    zap.NewNop(),
		maxUpload: defaultMaxUpload,
	}
	for _, o := range opts {
		o(srv)
	}
	return srv
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests, metricsMiddleware)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/formats", s.formats).Methods(http.MethodGet)

	api.HandleFunc("/files", s.listFiles).Methods(http.MethodGet)
	api.HandleFunc("/files", s.uploadFiles).Methods(http.MethodPost)
	api.HandleFunc("/files", s.clearFiles).Methods(http.MethodDelete)
	api.HandleFunc("/files/{index:[0-9]+}", s.removeFile).Methods(http.MethodDelete)

	api.HandleFunc("/convert", s.convert).Methods(http.MethodPost)
	api.HandleFunc("/progress", s.progress).Methods(http.MethodGet)

	api.HandleFunc("/results", s.listResults).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}/download", s.download).Methods(http.MethodGet)
	api.HandleFunc("/results/{id}", s.discard).Methods(http.MethodDelete)

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	// request contexts outlive ctx so shutdown lets running batches finish
	baseCtx, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		cancelRequests()
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
