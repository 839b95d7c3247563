// Package server exposes the coach over HTTP for the mobile client.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mifdirfan/PocketCoach/pkg/model"
	"github.com/mifdirfan/PocketCoach/pkg/usecase/coach"
	"github.com/mifdirfan/PocketCoach/pkg/utils/logging"
	"github.com/rs/cors"
)

const (
	DefaultRequestTimeout = 90 * time.Second
	shutdownTimeout       = 10 * time.Second
	maxBodyBytes          = 1 << 20
)

// Coach is the application the server routes requests to.
type Coach interface {
	Handle(ctx context.Context, message string) (*coach.Reply, error)
	Status(ctx context.Context) (*model.UserProfile, error)
	SaveProfile(ctx context.Context, profile *model.UserProfile) (*model.UserProfile, error)
	Summary(ctx context.Context, date string) (*model.DailySummary, error)
}

type Server struct {
	coach   Coach
	timeout time.Duration
	origins []string
	handler http.Handler
}

type Option func(*Server)

// WithRequestTimeout bounds each request. Zero disables the limit.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithAllowedOrigins sets the CORS origins. All origins are allowed by default.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

func New(c Coach, opts ...Option) *Server {
	s := &Server{
		coach:   c,
		timeout: DefaultRequestTimeout,
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/check_status", s.checkStatus).Methods(http.MethodGet)
	r.HandleFunc("/save_profile", s.saveProfile).Methods(http.MethodPost)
	r.HandleFunc("/chat", s.chat).Methods(http.MethodPost)
	r.HandleFunc("/get_summary", s.getSummary).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, http.StatusNotFound, "no such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed")
	})

	var h http.Handler = r
	h = withTimeout(s.timeout)(h)
	h = recovery(h)
	h = requestLogger(h)
	h = cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(h)
	s.handler = h

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.From(ctx).Info("server listening", "addr", addr, "request_timeout", s.timeout)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "server stopped", goerr.V("addr", addr))
	case <-ctx.Done():
	}

	logging.From(ctx).Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down server")
	}
	return nil
}
