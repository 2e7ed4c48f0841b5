package web

import (
	"net"
	"net/http"
	"testing"
	"time"
)

func TestManagerStartStop(t *testing.T) {
	m := NewManager("127.0.0.1:0", newTracker(), nil, nil)
	if m.Running() || m.Addr() != "" {
		t.Fatal("manager should start stopped")
	}

	if err := m.SetEnabled(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	t.Cleanup(func() { m.SetEnabled(false) })
	if !m.Running() {
		t.Fatal("expected running")
	}

	addr := m.Addr()
	resp, err := http.Get("http://" + addr + "/index.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d", resp.StatusCode)
	}

	// Enabling twice keeps the same listener.
	if err := m.SetEnabled(true); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	if m.Addr() != addr {
		t.Errorf("addr changed: %s -> %s", addr, m.Addr())
	}

	if err := m.SetEnabled(false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if m.Running() {
		t.Error("expected stopped")
	}
	if _, err := http.Get("http://" + addr + "/index.json"); err == nil {
		t.Error("expected connection failure after stop")
	}
}

func TestManagerRestart(t *testing.T) {
	m := NewManager("127.0.0.1:0", newTracker(), nil, nil)
	for i := 0; i < 2; i++ {
		if err := m.SetEnabled(true); err != nil {
			t.Fatalf("enable %d: %v", i, err)
		}
		resp, err := http.Get("http://" + m.Addr() + "/")
		if err != nil {
			t.Fatalf("GET %d: %v", i, err)
		}
		resp.Body.Close()
		if err := m.SetEnabled(false); err != nil {
			t.Fatalf("disable %d: %v", i, err)
		}
	}
}

func TestManagerDisableWhenStopped(t *testing.T) {
	m := NewManager("127.0.0.1:0", newTracker(), nil, nil)
	if err := m.SetEnabled(false); err != nil {
		t.Errorf("disable on stopped manager: %v", err)
	}
}

func TestManagerListenError(t *testing.T) {
	m := NewManager("256.0.0.1:bad", newTracker(), nil, nil)
	if err := m.SetEnabled(true); err == nil {
		m.SetEnabled(false)
		t.Fatal("expected listen error")
	}
	if m.Running() {
		t.Error("should not be running after listen error")
	}
}

func TestManagerStopDoesNotWaitForClients(t *testing.T) {
	m := NewManager("127.0.0.1:0", newTracker(), nil, nil)
	if err := m.SetEnabled(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	addr := m.Addr()

	// A connected client that never sends a request keeps the server busy.
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	start := time.Now()
	if err := m.SetEnabled(false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if d := time.Since(start); d > drainTimeout/4 {
		t.Errorf("disable blocked for %v", d)
	}
	if m.Running() {
		t.Error("expected stopped")
	}

	// The port is released immediately, so the server can come straight back.
	m2 := NewManager(addr, newTracker(), nil, nil)
	if err := m2.SetEnabled(true); err != nil {
		t.Fatalf("re-listen on %s: %v", addr, err)
	}
	m2.SetEnabled(false)
}
