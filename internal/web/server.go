// Package web provides the HTTP status page and the live waveform feed
// for the holter simulator.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/firatmio/cardioguard-mg/internal/status"
)

// Server serves the status page, the JSON status endpoint, and the
// WebSocket waveform feed.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	hub        *Hub
}

// New creates a Server that reads state from the given tracker. hub may be
// nil, in which case /ws responds 404.
func New(addr string, tracker *status.Tracker, hub *Hub) *Server {
	s := &Server{tracker: tracker, hub: hub}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	if hub != nil {
		mux.Handle("/ws", hub.Handler())
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
