package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sweeney/motodash/internal/status"
)

// drainTimeout bounds how long open connections may finish after a stop.
const drainTimeout = 2 * time.Second

// Manager starts and stops the HTTP server as the Wi-Fi setting changes.
// A stopped http.Server cannot be restarted, so each start builds a new one.
// SetEnabled is called from the main loop and never waits on clients.
type Manager struct {
	addr    string
	tracker *status.Tracker
	history HistorySource
	screen  ScreenSource

	mu   sync.Mutex
	srv  *Server
	ln   net.Listener
	done chan struct{}
}

// NewManager creates a stopped manager.
func NewManager(addr string, tracker *status.Tracker, history HistorySource, screen ScreenSource) *Manager {
	return &Manager{addr: addr, tracker: tracker, history: history, screen: screen}
}

// SetEnabled starts the server when on and stops it otherwise. Repeated
// calls with the same value are no-ops.
func (m *Manager) SetEnabled(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if on {
		return m.start()
	}
	return m.stop()
}

func (m *Manager) start() error {
	if m.srv != nil {
		return nil
	}
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.addr, err)
	}
	srv := New(m.addr, m.tracker, m.history, m.screen)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			log.Printf("web: server error: %v", err)
		}
	}()
	m.srv, m.ln, m.done = srv, ln, done
	log.Printf("web: listening on %s", ln.Addr())
	return nil
}

// stop closes the listener at once, so the port is free for a restart,
// and drains open connections in the background.
func (m *Manager) stop() error {
	if m.srv == nil {
		return nil
	}
	srv, ln, done := m.srv, m.ln, m.done
	m.srv, m.ln, m.done = nil, nil, nil

	err := ln.Close()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("web: drain: %v", err)
		}
		<-done
		log.Printf("web: stopped")
	}()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close web listener: %w", err)
	}
	return nil
}

// Running reports whether the server is up.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.srv != nil
}

// Addr returns the bound address while running, or "".
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return ""
	}
	return m.ln.Addr().String()
}
