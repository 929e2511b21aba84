package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrolink-io/agrolink/pkg/log"
	"github.com/agrolink-io/agrolink/pkg/options"
)

// StatusProvider supplies the current agent status for the API.
type StatusProvider interface {
	Status() any
}

// Server is the agent's HTTP surface: liveness, metrics, and the status
// API the fieldctl CLI consumes.
type Server struct {
	server *http.Server
}

// New creates the HTTP server.
func New(opts *options.HttpOptions, provider StatusProvider) *Server {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/v1/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(provider.Status()); err != nil {
			log.Error(err, "Failed to encode status response")
		}
	}).Methods(http.MethodGet)

	return &Server{
		server: &http.Server{
			Addr:    opts.Addr,
			Handler: r,
		},
	}
}

// Start runs the server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
