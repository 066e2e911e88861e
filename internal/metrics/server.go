package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the Prometheus registry plus liveness endpoints over
// HTTP. It owns its listener lifecycle: Start returns immediately and
// Shutdown drains in-flight scrapes.
type Server struct {
	addr    string
	httpSrv *http.Server
	logger  *slog.Logger
}

// NewServer builds a metrics server bound to addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	s := &Server{addr: addr, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	for _, p := range []string{"/health", "/healthz", "/ready", "/readyz"} {
		mux.HandleFunc(p, s.handleHealth)
	}
	mux.HandleFunc("/", s.handleIndex)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleIndex lists the available endpoints for anyone poking the port.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "go-runner-swarm")
	fmt.Fprintln(w, "  /metrics")
	fmt.Fprintln(w, "  /health")
	fmt.Fprintln(w, "  /ready")
}

// Start begins serving in a background goroutine. Bind failures
// surface through the error log rather than the return value because
// ListenAndServe only reports them after Start has returned.
func (s *Server) Start() error {
	s.logger.Info("metrics_server_starting", "addr", s.addr)

	go func() {
		err := s.httpSrv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics_server_error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("metrics_server_shutting_down")
	return s.httpSrv.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}
