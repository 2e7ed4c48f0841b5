//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "motodash"

// RealReader reads buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealReader requests the four button lines as pulled-up inputs.
func NewRealReader(chipName string, pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	offsets := make([]int, NumButtons)
	for i, p := range pins {
		offsets[i] = p
	}

	// Buttons short to ground when pressed, so idle lines must read high.
	lines, err := chip.RequestLines(offsets, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pins %v: %w", offsets, err)
	}

	return &RealReader{
		chip:  chip,
		lines: lines,
	}, nil
}

// Read returns the raw level of every button line (true = high = released).
func (r *RealReader) Read() (Levels, error) {
	values := make([]int, NumButtons)
	if err := r.lines.Values(values); err != nil {
		return Released(), fmt.Errorf("read button pins: %w", err)
	}

	var lv Levels
	for i, v := range values {
		lv[i] = v != 0
	}
	return lv, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// EdgeWatcher delivers falling edges of the RPM input to a handler.
type EdgeWatcher struct {
	line *gpiocdev.Line
}

// WatchEdges requests the RPM line with falling-edge detection. The handler
// is called from gpiocdev's event goroutine for every edge.
func WatchEdges(chipName string, pin int, handler EdgeHandler) (*EdgeWatcher, error) {
	line, err := gpiocdev.RequestLine(chipName, pin,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			handler(evt.Timestamp)
		}))
	if err != nil {
		return nil, fmt.Errorf("request rpm pin %d: %w", pin, err)
	}
	return &EdgeWatcher{line: line}, nil
}

// Close stops edge delivery and releases the line.
func (w *EdgeWatcher) Close() error {
	if w.line == nil {
		return nil
	}
	if err := w.line.Close(); err != nil {
		return fmt.Errorf("close rpm pin: %w", err)
	}
	return nil
}
