// Package health serves the liveness endpoint and the metrics scrape target.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Server is the liveness HTTP server
type Server struct {
	mux    *chi.Mux
	server *http.Server
}

// NewServer builds the router. metrics may be nil to leave /metrics unrouted.
func NewServer(port string, metrics http.Handler) *Server {
	s := &Server{mux: chi.NewRouter()}
	s.routes(metrics)
	s.server = &http.Server{
		Addr:              ":" + port,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes(metrics http.Handler) {
	r := s.mux
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("alive"))
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
}

// Start listens in the background until Shutdown is called
func (s *Server) Start() {
	go func() {
		log.Infof("Liveness server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Liveness server failed: %v", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
