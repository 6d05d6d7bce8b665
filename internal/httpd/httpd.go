// Package httpd serves a small JSON status endpoint for monitoring: the
// bot's identity, uptime and per-channel membership.
package httpd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andrewdodd13/botologist/internal/output"
)

// Status is the payload served at /status
type Status struct {
	Nick          string          `json:"nick"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Channels      []ChannelStatus `json:"channels"`
}

// ChannelStatus is one channel's membership snapshot
type ChannelStatus struct {
	Name  string   `json:"name"`
	Users int      `json:"users"`
	Nicks []string `json:"nicks"`
}

// StatusFunc produces the current status on each request
type StatusFunc func() Status

// Server is the embedded status HTTP server
type Server struct {
	srv    *http.Server
	logger output.Logger
}

// New builds the status server listening on host:port
func New(host string, port int, logger output.Logger, status StatusFunc) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status()); err != nil {
			logger.Error("Writing status response: %v", err)
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start runs the server on its own goroutine
func (s *Server) Start() {
	s.logger.Info("Status server listening on %s", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Status server: %v", err)
		}
	}()
}

// Stop shuts the server down, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
