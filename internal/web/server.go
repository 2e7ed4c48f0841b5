// Package web serves the dashboard status page, the recorded track and a
// live copy of the OLED frame over HTTP.
package web

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/sweeney/motodash/internal/acquisition"
	"github.com/sweeney/motodash/internal/status"
)

// HistorySource exposes the recorded samples.
type HistorySource interface {
	Samples() []acquisition.Sample
	Len() int
	Cap() int
	Dropped() int
}

// ScreenSource renders the last committed display frame as PNG.
type ScreenSource interface {
	WritePNG(w io.Writer) error
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    HistorySource
	screen     ScreenSource
}

// New creates a Server that reads state from the given tracker. history
// and screen may be nil; their endpoints then answer 404.
func New(addr string, tracker *status.Tracker, history HistorySource, screen ScreenSource) *Server {
	s := &Server{tracker: tracker, history: history, screen: screen}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/history.json", s.handleHistory)
	mux.HandleFunc("/screen.png", s.handleScreen)

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
	if err := renderHTML(w, snap); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatHistory(s.history))
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	if s.screen == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.screen.WritePNG(w); err != nil {
		log.Printf("web: encode screen: %v", err)
	}
}
