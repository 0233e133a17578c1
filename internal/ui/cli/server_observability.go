package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ObservabilityServer exposes Prometheus metrics and the status of the last
// run while watch mode is active.
type ObservabilityServer struct {
	addr   string
	status func() runStatus
	server *http.Server
}

func NewObservabilityServer(addr string, status func() runStatus) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, status: status}
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.status()
		w.Header().Set("Content-Type", "application/json")
		if status.Error != "" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	slog.Info("observability server starting", "addr", s.addr)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address, resolved once Start succeeds.
func (s *ObservabilityServer) Addr() string { return s.addr }

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
