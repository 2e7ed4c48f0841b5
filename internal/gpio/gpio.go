// Package gpio provides button and RPM input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Button identifies one of the four handlebar buttons.
type Button int

const (
	RightUp Button = iota
	RightDown
	LeftUp
	LeftDown

	NumButtons = 4
)

var buttonNames = [NumButtons]string{"right-up", "right-down", "left-up", "left-down"}

func (b Button) String() string {
	if b < 0 || int(b) >= NumButtons {
		return "unknown"
	}
	return buttonNames[b]
}

// Valid reports whether b names a physical button.
func (b Button) Valid() bool {
	return b >= 0 && int(b) < NumButtons
}

// Levels holds the raw line level of every button.
// Buttons are active-low: true = high = released.
type Levels [NumButtons]bool

// Released returns levels with every button at its released (high) level.
func Released() Levels {
	return Levels{true, true, true, true}
}

// ButtonReader reads the raw button lines.
type ButtonReader interface {
	// Read returns the raw level of every button line.
	Read() (Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// EdgeHandler receives the kernel timestamp of every falling edge on the
// RPM line. It runs on the GPIO event goroutine and must not block.
type EdgeHandler func(ts time.Duration)

// Pin definitions (BCM numbering)
const (
	DefaultPinRightUp   = 5
	DefaultPinRightDown = 6
	DefaultPinLeftUp    = 13
	DefaultPinLeftDown  = 19
	DefaultPinRPM       = 21
)

// Pins maps each button to its line offset.
type Pins [NumButtons]int

// DefaultPins returns the stock wiring of the dashboard harness.
func DefaultPins() Pins {
	return Pins{DefaultPinRightUp, DefaultPinRightDown, DefaultPinLeftUp, DefaultPinLeftDown}
}
