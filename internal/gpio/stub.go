//go:build !linux

package gpio

import "errors"

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chipName string, pins Pins) (*RealReader, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (Levels, error) {
	return Released(), errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// EdgeWatcher is not available on non-Linux platforms.
type EdgeWatcher struct{}

// WatchEdges returns an error on non-Linux platforms.
func WatchEdges(chipName string, pin int, handler EdgeHandler) (*EdgeWatcher, error) {
	return nil, errors.New("gpio: edge events not supported on this platform")
}

// Close is a no-op on non-Linux platforms.
func (w *EdgeWatcher) Close() error {
	return nil
}
