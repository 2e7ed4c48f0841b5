package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
)

// Config controls the GPS reader.
//
// Device may be empty to disable the receiver (the dashboard keeps running
// with placeholder readouts).
type Config struct {
	Device string
	Baud   int
}

// Service reads NMEA from a serial device in the background and keeps the
// latest fix.
type Service struct {
	cfg Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last atomic.Value // Fix

	mu     sync.Mutex
	closer io.Closer
	health Health
}

// New creates a stopped service.
func New(cfg Config) *Service {
	s := &Service{cfg: cfg}
	s.last.Store(Fix{})
	return s
}

// Start opens the serial device and starts the reader goroutine.
func (s *Service) Start(ctx context.Context) error {
	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	baud := s.cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	f, err := openSerial(device, baud)
	if err != nil {
		return fmt.Errorf("open gps device=%s baud=%d: %w", device, baud, err)
	}
	s.closer = f

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer f.Close()

		log.Printf("gps: reading device=%s baud=%d", device, baud)
		s.readLoop(childCtx, f)
	}()
	return nil
}

func (s *Service) readLoop(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	// NMEA sentences are typically < 82 chars, but allow some headroom.
	scanner.Buffer(make([]byte, 0, 256), 4096)

	var dec Decoder
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			err := scanner.Err()
			if err == nil {
				err = io.EOF
			}
			s.setError(fmt.Sprintf("gps read stopped: %v", err))
			return
		}

		line := strings.TrimSpace(scanner.Text())
		// Some receivers may include non-NMEA chatter; filter quickly.
		if !strings.HasPrefix(line, "$") {
			continue
		}

		updated, err := dec.Feed(line)
		s.mu.Lock()
		s.health.Sentences, s.health.Failures = dec.Stats()
		if err != nil {
			// Avoid spamming on bad noise; just keep the last error.
			s.health.LastError = err.Error()
		}
		s.mu.Unlock()
		if err != nil {
			continue
		}
		if updated {
			s.last.Store(dec.Fix())
		}
	}
}

// Close stops the reader and waits for it to exit.
func (s *Service) Close() {
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

// Fix returns the latest fix.
func (s *Service) Fix() Fix {
	return s.last.Load().(Fix)
}

// Health returns sentence counters and the most recent read or decode error.
func (s *Service) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	s.health.LastError = msg
	s.mu.Unlock()
}
